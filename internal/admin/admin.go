// Package admin holds the cron-triggered maintenance endpoint. It is guarded
// by a shared secret header instead of a session so a scheduler can call it.
package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const secretHeader = "X-Cron-Secret"

// OTPPruner removes used and expired codes.
type OTPPruner interface {
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

// LogPruner removes audit rows older than a cutoff.
type LogPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Maintenance struct {
	Codes     OTPPruner
	Logs      LogPruner
	Secret    string
	Retention time.Duration
	Now       func() time.Time
}

// Setup mounts POST /admin/maintenance/cleanup on the /api group.
func Setup(router gin.IRouter, m Maintenance) {
	if m.Now == nil {
		m.Now = func() time.Time { return time.Now().UTC() }
	}
	router.POST("/admin/maintenance/cleanup", cleanup(m))
}

func cleanup(m Maintenance) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(secretHeader)
		if m.Secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(m.Secret)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid or missing X-Cron-Secret"})
			return
		}

		ctx := c.Request.Context()
		now := m.Now()
		codes, err := m.Codes.DeleteStale(ctx, now)
		if err != nil {
			slog.ErrorContext(ctx, "maintenance: otp cleanup failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		var logs int64
		if m.Retention > 0 {
			logs, err = m.Logs.DeleteBefore(ctx, now.Add(-m.Retention))
			if err != nil {
				slog.ErrorContext(ctx, "maintenance: api log cleanup failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
		}

		slog.InfoContext(ctx, "maintenance: cleanup finished", "otp_codes", codes, "api_logs", logs)
		c.JSON(http.StatusOK, gin.H{
			"message":           "Cleanup finished",
			"otp_codes_deleted": codes,
			"api_logs_deleted":  logs,
		})
	}
}
