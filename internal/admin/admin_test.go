package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type stubPruner struct {
	n      int64
	err    error
	called time.Time
}

func (s *stubPruner) DeleteStale(_ context.Context, now time.Time) (int64, error) {
	s.called = now
	return s.n, s.err
}

func (s *stubPruner) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.called = cutoff
	return s.n, s.err
}

func newRouter(m Maintenance) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	Setup(r.Group("/api"), m)
	return r
}

func post(r *gin.Engine, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/admin/maintenance/cleanup", nil)
	if secret != "" {
		req.Header.Set("X-Cron-Secret", secret)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCleanup_RequiresSecret(t *testing.T) {
	r := newRouter(Maintenance{Codes: &stubPruner{}, Logs: &stubPruner{}, Secret: "s3cret"})
	for _, secret := range []string{"", "wrong"} {
		if w := post(r, secret); w.Code != http.StatusForbidden {
			t.Fatalf("secret %q: status = %d", secret, w.Code)
		}
	}

	r = newRouter(Maintenance{Codes: &stubPruner{}, Logs: &stubPruner{}})
	if w := post(r, ""); w.Code != http.StatusForbidden {
		t.Fatalf("unset secret must never match, got %d", w.Code)
	}
}

func TestCleanup_DeletesAndReportsCounts(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	codes := &stubPruner{n: 7}
	logs := &stubPruner{n: 120}
	r := newRouter(Maintenance{
		Codes:     codes,
		Logs:      logs,
		Secret:    "s3cret",
		Retention: 90 * 24 * time.Hour,
		Now:       func() time.Time { return now },
	})

	w := post(r, "s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["otp_codes_deleted"] != float64(7) || body["api_logs_deleted"] != float64(120) {
		t.Fatalf("body = %v", body)
	}
	if !codes.called.Equal(now) || !logs.called.Equal(now.AddDate(0, 0, -90)) {
		t.Fatalf("cutoffs: codes %v logs %v", codes.called, logs.called)
	}
}

func TestCleanup_Failure(t *testing.T) {
	r := newRouter(Maintenance{Codes: &stubPruner{err: errors.New("db down")}, Logs: &stubPruner{}, Secret: "s3cret"})
	if w := post(r, "s3cret"); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
}
