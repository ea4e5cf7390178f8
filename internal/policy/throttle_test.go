package policy

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestThrottle(t *testing.T) *OPAThrottle {
	t.Helper()
	th, err := NewOPAThrottle(context.Background(), "", 15*time.Minute, 3)
	if err != nil {
		t.Fatalf("NewOPAThrottle: %v", err)
	}
	return th
}

func TestOPAThrottle_Allow(t *testing.T) {
	th := newTestThrottle(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		in    ThrottleInput
		allow bool
	}{
		{"first attempt", ThrottleInput{AttemptCount: 0, FirstAttempt: now, Now: now}, true},
		{"under limit", ThrottleInput{AttemptCount: 2, FirstAttempt: now.Add(-time.Minute), Now: now}, true},
		{"at limit", ThrottleInput{AttemptCount: 3, FirstAttempt: now.Add(-time.Minute), Now: now}, false},
		{"over limit", ThrottleInput{AttemptCount: 10, FirstAttempt: now.Add(-14 * time.Minute), Now: now}, false},
		{"window rolled over", ThrottleInput{AttemptCount: 10, FirstAttempt: now.Add(-15 * time.Minute), Now: now}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := th.Allow(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("Allow: %v", err)
			}
			if got != tc.allow {
				t.Fatalf("Allow = %v, want %v", got, tc.allow)
			}
		})
	}
}

func TestNewOPAThrottle_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAThrottle(context.Background(), "package broken\nallow if {", time.Minute, 1); err == nil {
		t.Fatal("expected compile error")
	}
}

type errThrottle struct{}

func (errThrottle) Allow(context.Context, ThrottleInput) (bool, error) {
	return false, errors.New("boom")
}

func TestFailOpen(t *testing.T) {
	ok, err := FailOpen{Throttle: errThrottle{}}.Allow(context.Background(), ThrottleInput{})
	if err != nil || !ok {
		t.Fatalf("FailOpen = %v, %v; want true, nil", ok, err)
	}
}
