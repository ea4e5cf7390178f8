package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/services"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/session"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	admin bool
	err   error
	calls int
}

func (v *stubVerifier) VerifyPrivilege(_ context.Context, sess *session.Session) (services.PrivilegeVerdict, error) {
	v.calls++
	return services.PrivilegeVerdict{IsAdmin: v.admin, Session: sess}, v.err
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []*models.APILog
}

func (r *captureRecorder) Record(e *models.APILog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func newCookies(t *testing.T) *session.Cookies {
	t.Helper()
	codec, err := session.NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return session.NewCookies(codec, "", false)
}

func withSession(t *testing.T, cookies *session.Cookies, req *http.Request, s session.Session) {
	t.Helper()
	value, err := cookies.Codec.Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: cookies.Name, Value: value})
}

func adminRouter(cookies *session.Cookies, v PrivilegeVerifier) *gin.Engine {
	r := gin.New()
	r.Use(SessionLoader(cookies))
	r.GET("/me", RequireSession(), func(c *gin.Context) {
		id, err := StudentID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	r.GET("/admin", RequireAdmin(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin": IsAdmin(c)})
	})
	return r
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return body["error"]
}

func TestRequireSession(t *testing.T) {
	cookies := newCookies(t)
	r := adminRouter(cookies, &stubVerifier{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized || errorOf(t, w) != "Unauthorized" {
		t.Fatalf("no cookie: got %d %s", w.Code, w.Body)
	}

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	withSession(t, cookies, req, session.New(id, "599123456", "Nino", false, time.Now(), time.Hour))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), id.String()) {
		t.Fatalf("with cookie: got %d %s", w.Code, w.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	withSession(t, cookies, req, session.New(id, "599123456", "Nino", false, time.Now().Add(-2*time.Hour), time.Hour))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expired cookie: got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	cookies := newCookies(t)
	now := time.Now()
	admin := session.New(uuid.New(), "599000001", "Admin", true, now, time.Hour)

	target := session.New(uuid.New(), "599000002", "Nino", false, now, time.Hour)
	imp := session.Impersonating(target, admin, now, time.Hour)

	cases := []struct {
		name     string
		sess     *session.Session
		verifier *stubVerifier
		want     int
		wantErr  string
		calls    int
	}{
		{"anonymous", nil, &stubVerifier{admin: true}, http.StatusUnauthorized, "Unauthorized", 0},
		{"verified admin", &admin, &stubVerifier{admin: true}, http.StatusOK, "", 1},
		{"revoked admin", &admin, &stubVerifier{admin: false}, http.StatusForbidden, services.ErrAdminRequired.Message, 1},
		{"lookup failure", &admin, &stubVerifier{err: errors.New("db down")}, http.StatusInternalServerError, "Internal server error", 1},
		{"impersonating", &imp, &stubVerifier{admin: true}, http.StatusForbidden, services.ErrImpersonationActive.Message, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := adminRouter(cookies, tc.verifier)
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.sess != nil {
				withSession(t, cookies, req, *tc.sess)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tc.want, w.Body)
			}
			if tc.wantErr != "" && errorOf(t, w) != tc.wantErr {
				t.Fatalf("error = %q, want %q", errorOf(t, w), tc.wantErr)
			}
			if tc.verifier.calls != tc.calls {
				t.Fatalf("verifier calls = %d, want %d", tc.verifier.calls, tc.calls)
			}
		})
	}
}

func TestAuditLog_RedactsAndRestoresBody(t *testing.T) {
	rec := &captureRecorder{}
	r := gin.New()
	r.Use(AuditLog(rec))
	var seen string
	r.POST("/api/auth/verify-otp", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		seen = string(b)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
	})

	payload := `{"phone":"599123456","code":"123456","nested":{"Password":"x"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-otp", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if seen != payload {
		t.Fatalf("handler saw %q", seen)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries", len(rec.entries))
	}
	e := rec.entries[0]
	if e.Method != http.MethodPost || e.Path != "/api/auth/verify-otp" || e.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.IPAddress == nil || *e.IPAddress != "203.0.113.7" {
		t.Fatalf("ip = %v", e.IPAddress)
	}
	if e.UserAgent == nil || *e.UserAgent != "test-agent" {
		t.Fatalf("user agent = %v", e.UserAgent)
	}
	var body map[string]any
	if err := json.Unmarshal(e.RequestBody, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["code"] != "[REDACTED]" || body["phone"] != "599123456" {
		t.Fatalf("body not redacted: %v", body)
	}
	if nested := body["nested"].(map[string]any); nested["Password"] != "[REDACTED]" {
		t.Fatalf("nested not redacted: %v", nested)
	}
}

func TestAuditLog_RecordsSessionAndErrors(t *testing.T) {
	cookies := newCookies(t)
	rec := &captureRecorder{}
	r := gin.New()
	r.Use(SessionLoader(cookies), AuditLog(rec))
	r.GET("/api/dashboard", func(c *gin.Context) {
		_ = c.Error(errors.New("load dashboard: boom"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	})

	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("X-Real-IP", "198.51.100.2")
	withSession(t, cookies, req, session.New(id, "599123456", "Nino", false, time.Now(), time.Hour))
	r.ServeHTTP(httptest.NewRecorder(), req)

	e := rec.entries[0]
	if e.UserID == nil || *e.UserID != id {
		t.Fatalf("user id = %v", e.UserID)
	}
	if e.ErrorMessage == nil || *e.ErrorMessage != "load dashboard: boom" {
		t.Fatalf("error = %v", e.ErrorMessage)
	}
	if e.IPAddress == nil || *e.IPAddress != "198.51.100.2" {
		t.Fatalf("ip = %v", e.IPAddress)
	}
	if e.RequestBody != nil {
		t.Fatalf("GET should not capture a body, got %s", e.RequestBody)
	}
}

func TestAuditLog_RecordsPanics(t *testing.T) {
	rec := &captureRecorder{}
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}), AuditLog(rec))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("recorded %d entries", len(rec.entries))
	}
	e := rec.entries[0]
	if e.StatusCode != http.StatusInternalServerError || e.ErrorMessage == nil || *e.ErrorMessage != "kaboom" {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestRedactJSON(t *testing.T) {
	got := RedactJSON([]byte(`[{"otp":"1"},{"name":"a"}]`))
	if string(got) != `[{"otp":"[REDACTED]"},{"name":"a"}]` {
		t.Fatalf("got %s", got)
	}
	if RedactJSON([]byte("not json")) != nil {
		t.Fatal("invalid JSON should be dropped")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ClientIP(req) != nil {
		t.Fatal("no headers should yield nil")
	}
	req.Header.Set("X-Real-IP", " 10.1.1.1 ")
	if ip := ClientIP(req); ip == nil || *ip != "10.1.1.1" {
		t.Fatalf("ip = %v", ip)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" ||
		w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("headers = %v", w.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unknown origin must not be allowed")
	}
}

func TestCORS_StarIsNotAWildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*", "https://portal.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for origin, want := range map[string]string{
		"https://portal.example": "https://portal.example",
		"http://evil.example":    "",
		"*":                      "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %q: Allow-Origin = %q, want %q", origin, got, want)
		}
	}
}
