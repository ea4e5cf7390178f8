package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// Guards that answer with distinct codes so a test can tell which one a
// route sits behind without touching the controllers.
func testGuards() Guards {
	return Guards{
		Session: func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) },
		Admin:   func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) },
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupRoutes(router, Handlers{}, testGuards())
	return router
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || w.Body.String() != `{"status":"ok"}` {
		t.Fatalf("health = %d %s", w.Code, w.Body)
	}
}

func TestGuardPlacement(t *testing.T) {
	router := newTestRouter()
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/auth/session", http.StatusUnauthorized},
		{http.MethodPost, "/api/admin/impersonate", http.StatusForbidden},
		{http.MethodPost, "/api/admin/stop-impersonate", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/students", http.StatusForbidden},
		{http.MethodPut, "/api/admin/students/1", http.StatusForbidden},
		{http.MethodPut, "/api/admin/task-applications/1", http.StatusForbidden},
		{http.MethodPost, "/api/admin/media", http.StatusForbidden},
		{http.MethodDelete, "/api/admin/media/icons/a.png", http.StatusForbidden},
		{http.MethodPost, "/api/jobs", http.StatusForbidden},
		{http.MethodPost, "/api/jobs/1/duplicate", http.StatusForbidden},
		{http.MethodPost, "/api/jobs/1/apply", http.StatusUnauthorized},
		{http.MethodGet, "/api/jobs/1/apply", http.StatusUnauthorized},
		{http.MethodDelete, "/api/tasks/1", http.StatusForbidden},
		{http.MethodPut, "/api/tasks/1/apply", http.StatusUnauthorized},
		{http.MethodDelete, "/api/tasks/1/apply", http.StatusUnauthorized},
		{http.MethodPost, "/api/skills", http.StatusForbidden},
		{http.MethodDelete, "/api/courses/1", http.StatusForbidden},
		{http.MethodPut, "/api/technologies/1", http.StatusForbidden},
		{http.MethodPost, "/api/topics", http.StatusForbidden},
		{http.MethodGet, "/api/dashboard", http.StatusUnauthorized},
		{http.MethodGet, "/api/certificate-requests", http.StatusUnauthorized},
		{http.MethodPost, "/api/certificate-requests", http.StatusUnauthorized},
		{http.MethodPut, "/api/certificate-requests/1", http.StatusForbidden},
		{http.MethodGet, "/api/logs", http.StatusForbidden},
		{http.MethodGet, "/api/login-attempts", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestPublicRoutesAreRegistered(t *testing.T) {
	registered := map[string]bool{}
	for _, r := range newTestRouter().Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/send-otp",
		"POST /api/auth/verify-otp",
		"POST /api/auth/logout",
		"GET /api/jobs",
		"GET /api/jobs/:id",
		"GET /api/tasks",
		"GET /api/tasks/:id",
		"GET /api/skills",
		"GET /api/skills/:id",
		"GET /api/courses",
		"GET /api/technologies",
		"GET /api/technologies/:id",
		"GET /api/topics",
		"GET /api/topics/:id",
		"GET /media/*path",
	} {
		if !registered[want] {
			t.Errorf("route %s not registered", want)
		}
	}
}
