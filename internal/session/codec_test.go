package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func newTestCodec(t *testing.T, now time.Time) *Codec {
	t.Helper()
	codec, err := NewCodec(testSecret)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec.WithClock(func() time.Time { return now })
}

func TestNewCodec_RequiresSecret(t *testing.T) {
	if _, err := NewCodec(""); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, now)

	id := uuid.New()
	in := New(id, "599123456", "Nino", true, now, DefaultTTL)
	value, err := codec.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, ok := codec.Decode(value)
	if !ok {
		t.Fatal("expected session to decode")
	}
	if out.StudentID != id.String() || !out.IsAdmin || out.Phone != "599123456" || out.Name != "Nino" {
		t.Fatalf("unexpected session: %+v", out)
	}
	if out.ExpiresAt != now.Add(DefaultTTL).UnixMilli() {
		t.Fatalf("expiresAt = %d", out.ExpiresAt)
	}
}

func TestCodec_ExpiredIsAbsent(t *testing.T) {
	issued := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s := New(uuid.New(), "599123456", "Nino", false, issued, time.Hour)

	value, err := newTestCodec(t, issued).Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// now == expiresAt is already expired.
	if _, ok := newTestCodec(t, issued.Add(time.Hour)).Decode(value); ok {
		t.Fatal("session at expiresAt must be absent")
	}
	if _, ok := newTestCodec(t, issued.Add(time.Hour-time.Millisecond)).Decode(value); !ok {
		t.Fatal("session one millisecond before expiry must be present")
	}
}

func TestCodec_RejectsGarbageAndForgery(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, now)

	for _, value := range []string{"", "not-a-token", "a.b.c", `{"studentId":"x","isAdmin":true}`} {
		if _, ok := codec.Decode(value); ok {
			t.Fatalf("expected %q to decode as absent", value)
		}
	}

	other, _ := NewCodec("another-secret-key-minimum-32-characters")
	forged, err := other.Encode(New(uuid.New(), "1", "x", true, now, time.Hour))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := codec.Decode(forged); ok {
		t.Fatal("session signed with another key must be absent")
	}
}

func TestCodec_TamperedPayloadIsAbsent(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, now)
	value, err := codec.Encode(New(uuid.New(), "1", "x", false, now, time.Hour))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	parts := strings.Split(value, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(payload, &m); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	m["isAdmin"] = true
	raw, _ := json.Marshal(m)
	parts[1] = base64.RawURLEncoding.EncodeToString(raw)

	if _, ok := codec.Decode(strings.Join(parts, ".")); ok {
		t.Fatal("tampered session must be absent")
	}
}

func TestCodec_RejectsInconsistentImpersonation(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, now)

	s := New(uuid.New(), "1", "x", true, now, time.Hour)
	s.IsImpersonating = true
	value, err := codec.Encode(s)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, ok := codec.Decode(value); ok {
		t.Fatal("impersonating session without originalAdmin must be absent")
	}
}

func TestImpersonating(t *testing.T) {
	now := time.Now()
	admin := New(uuid.New(), "555000111", "Admin", true, now, time.Hour)
	target := New(uuid.New(), "599123456", "Student", false, now, time.Hour)

	s := Impersonating(target, admin, now, DefaultTTL)
	if s.IsAdmin || !s.IsImpersonating {
		t.Fatalf("unexpected flags: %+v", s)
	}
	if s.StudentID != target.StudentID || s.OriginalAdmin == nil || s.OriginalAdmin.StudentID != admin.StudentID {
		t.Fatalf("unexpected identities: %+v", s)
	}
	if !s.ClaimsAdmin() || s.PrivilegedSubject() != admin.StudentID {
		t.Fatal("impersonated session must defer privilege to the original admin")
	}
}

func TestCookies_WriteReadClear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	cookies := NewCookies(newTestCodec(t, now), "", true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	s := New(uuid.New(), "599123456", "Nino", false, now, DefaultTTL)
	if err := cookies.Write(c, s, DefaultTTL); err != nil {
		t.Fatalf("Write: %v", err)
	}

	header := w.Header().Get("Set-Cookie")
	for _, want := range []string{"session=", "Path=/", "Max-Age=604800", "HttpOnly", "Secure", "SameSite=Lax"} {
		if !strings.Contains(header, want) {
			t.Fatalf("Set-Cookie %q missing %q", header, want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range w.Result().Cookies() {
		req.AddCookie(ck)
	}
	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	c2.Request = req
	got, ok := cookies.Read(c2)
	if !ok || got.StudentID != s.StudentID {
		t.Fatalf("Read = %+v, %v", got, ok)
	}

	w3 := httptest.NewRecorder()
	c3, _ := gin.CreateTestContext(w3)
	c3.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	cookies.Clear(c3)
	if h := w3.Header().Get("Set-Cookie"); !strings.Contains(h, "Max-Age=0") {
		t.Fatalf("Clear should expire the cookie, got %q", h)
	}
}
