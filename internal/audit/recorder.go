// Package audit persists one APILog per handled request without holding up
// the response.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/repositories"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/telemetry"
)

const defaultTimeout = 5 * time.Second

// Publisher forwards audit entries to an external stream.
type Publisher interface {
	Publish(ctx context.Context, entry *models.APILog) error
	Close() error
}

type Options struct {
	Publisher Publisher
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
	Timeout   time.Duration
}

// Recorder writes entries in the background. Failures are logged and
// counted, never returned to the request.
type Recorder struct {
	logs      repositories.APILogRepository
	publisher Publisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	timeout   time.Duration
	wg        sync.WaitGroup
}

func NewRecorder(logs repositories.APILogRepository, opts Options) *Recorder {
	r := &Recorder{
		logs:      logs,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		timeout:   opts.Timeout,
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.timeout <= 0 {
		r.timeout = defaultTimeout
	}
	return r
}

// Record schedules entry for persistence and returns immediately.
func (r *Recorder) Record(entry *models.APILog) {
	if r == nil || entry == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.write(entry)
	}()
}

func (r *Recorder) write(entry *models.APILog) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.logs.Create(ctx, entry); err != nil {
		r.metrics.AuditFailed(ctx, "db")
		r.logger.ErrorContext(ctx, "audit: failed to persist api log",
			"method", entry.Method, "path", entry.Path, "status", entry.StatusCode, "error", err)
	}
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, entry); err != nil {
		r.metrics.AuditFailed(ctx, "kafka")
		r.logger.WarnContext(ctx, "audit: failed to publish api log", "path", entry.Path, "error", err)
	}
}

// Close waits for pending writes until ctx ends, then closes the publisher.
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		r.logger.Warn("audit: shutdown before pending writes finished")
	}
	if r.publisher != nil {
		return r.publisher.Close()
	}
	return nil
}
