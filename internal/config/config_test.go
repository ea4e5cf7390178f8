package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":    0,
		"7d":  7 * 24 * time.Hour,
		"5m":  5 * time.Minute,
		"90s": 90 * time.Second,
	}
	for in, want := range cases {
		got, err := parseDuration(in)
		if err != nil {
			t.Fatalf("parseDuration(%q) error: %v", in, err)
		}
		if got != want {
			t.Fatalf("parseDuration(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := parseDuration("xd"); err == nil {
		t.Fatal("expected error for malformed day duration")
	}
}

func TestValidate_ReleaseRequiresSecret(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Mode: "release"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing secret in release mode")
	}

	cfg.Session.Secret = "short"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for short secret in release mode")
	}

	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_DebugFallsBackToDevSecret(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Mode: "debug"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Session.Secret == "" {
		t.Fatal("expected a development secret to be filled in")
	}
}

func TestValidate_SMSNeedsAPIKey(t *testing.T) {
	cfg := &Config{Session: SessionConfig{Secret: "x"}, SMS: SMSConfig{Enabled: true}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when sms is enabled without api key")
	}
}

func TestValidate_RejectsWildcardOrigin(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Secret: "x"},
		CORS:    CORSConfig{AllowedOrigins: []string{"http://localhost:3000", "*"}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for \"*\" in cors.allowed_origins")
	}

	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetters_FallBackOnEmpty(t *testing.T) {
	var s SessionConfig
	if got := s.GetTTL(); got != 7*24*time.Hour {
		t.Fatalf("session ttl = %v", got)
	}
	var o OTPConfig
	if got := o.GetTTL(); got != 5*time.Minute {
		t.Fatalf("otp ttl = %v", got)
	}
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "portal", SSLMode: "disable"}
	if got, want := db.GetURL(), "postgres://u:p@db:5432/portal?sslmode=disable"; got != want {
		t.Fatalf("GetURL = %q, want %q", got, want)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	content := "PORTAL_TEST_FROM_FILE=file\nPORTAL_TEST_PRESET=file\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORTAL_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("PORTAL_TEST_FROM_FILE") })

	if err := loadDotEnv(file); err != nil {
		t.Fatalf("loadDotEnv: %v", err)
	}
	if got := os.Getenv("PORTAL_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("PORTAL_TEST_FROM_FILE = %q", got)
	}
	if got := os.Getenv("PORTAL_TEST_PRESET"); got != "env" {
		t.Fatalf("environment must win over .env, got %q", got)
	}

	if err := loadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}
}
