// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/config"
)

// New returns a logger writing to output. Text format uses tint and only
// colorizes when output is a terminal.
func New(cfg config.LoggingConfig, output *os.File) *slog.Logger {
	return slog.New(newHandler(cfg, output, output != nil && isatty.IsTerminal(output.Fd())))
}

// Setup installs the logger as slog's default and returns it.
func Setup(cfg config.LoggingConfig) *slog.Logger {
	logger := New(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

func newHandler(cfg config.LoggingConfig, w io.Writer, terminal bool) slog.Handler {
	level := ParseLevel(cfg.Level)
	if cfg.Format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "Jan 02 15:04:05.000",
		NoColor:    !(cfg.Color && terminal),
	})
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(input string) (level slog.Level) {
	if err := level.UnmarshalText([]byte(input)); err != nil {
		level = slog.LevelInfo
	}
	return level
}
