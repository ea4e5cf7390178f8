// Package policy evaluates Rego rules that gate OTP issuance.
package policy

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const throttleQuery = "data.portal.otp_throttle.allow"

//go:embed throttle.rego
var defaultThrottlePolicy string

// ThrottleInput describes the login-attempt history for one phone.
type ThrottleInput struct {
	AttemptCount int
	FirstAttempt time.Time
	Now          time.Time
}

// Throttle decides whether another OTP may be issued for a phone.
type Throttle interface {
	Allow(ctx context.Context, in ThrottleInput) (bool, error)
}

// OPAThrottle evaluates a fixed-window attempt limit written in Rego.
type OPAThrottle struct {
	query       rego.PreparedEvalQuery
	window      time.Duration
	maxAttempts int
}

// NewOPAThrottle compiles policy (or the embedded default when empty).
func NewOPAThrottle(ctx context.Context, policy string, window time.Duration, maxAttempts int) (*OPAThrottle, error) {
	if policy == "" {
		policy = defaultThrottlePolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"throttle.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile throttle policy: %w", err)
	}
	query, err := rego.New(
		rego.Query(throttleQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare throttle policy: %w", err)
	}
	return &OPAThrottle{query: query, window: window, maxAttempts: maxAttempts}, nil
}

func (t *OPAThrottle) Allow(ctx context.Context, in ThrottleInput) (bool, error) {
	input := map[string]interface{}{
		"attempt_count":       in.AttemptCount,
		"seconds_since_first": int64(in.Now.Sub(in.FirstAttempt) / time.Second),
		"window_seconds":      int64(t.window / time.Second),
		"max_attempts":        t.maxAttempts,
	}
	rs, err := t.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval throttle policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("throttle policy returned no result")
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("throttle policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return allow, nil
}

// AllowAll is used when throttling is switched off.
type AllowAll struct{}

func (AllowAll) Allow(context.Context, ThrottleInput) (bool, error) { return true, nil }

// FailOpen wraps a throttle so evaluation errors let the request through.
// A broken policy must not lock every user out of login.
type FailOpen struct {
	Throttle Throttle
	Logger   *slog.Logger
}

func (f FailOpen) Allow(ctx context.Context, in ThrottleInput) (bool, error) {
	ok, err := f.Throttle.Allow(ctx, in)
	if err != nil {
		logger := f.Logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(ctx, "policy: throttle evaluation failed, allowing", "error", err)
		return true, nil
	}
	return ok, nil
}
