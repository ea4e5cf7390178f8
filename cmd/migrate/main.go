// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up      apply every pending migration
//	migrate down    roll back the most recent migration
package main

import (
	"log/slog"
	"os"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/config"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/database"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Logging)

	direction := database.Up
	if len(os.Args) > 1 {
		direction = database.Direction(os.Args[1])
	}

	if err := database.RunMigrations(&cfg.Database, direction); err != nil {
		logger.Error("migration failed", "direction", direction, "error", err)
		os.Exit(1)
	}
	logger.Info("migration finished", "direction", direction)
}
