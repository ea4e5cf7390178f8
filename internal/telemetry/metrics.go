package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/dath-251-thuanle/student-portal-be-web"

// Metrics are the application counters. A nil *Metrics records nothing.
type Metrics struct {
	otpIssued     metric.Int64Counter
	otpVerified   metric.Int64Counter
	otpThrottled  metric.Int64Counter
	smsFailures   metric.Int64Counter
	auditFailures metric.Int64Counter
}

// NewMetrics registers the counters on meter, or on the global provider when
// meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	var (
		m   Metrics
		err error
	)
	if m.otpIssued, err = meter.Int64Counter("portal.otp.issued",
		metric.WithDescription("OTP codes stored for registered phones")); err != nil {
		return nil, err
	}
	if m.otpVerified, err = meter.Int64Counter("portal.otp.verifications",
		metric.WithDescription("OTP verification attempts by outcome")); err != nil {
		return nil, err
	}
	if m.otpThrottled, err = meter.Int64Counter("portal.otp.throttled",
		metric.WithDescription("OTP requests rejected by the attempt policy")); err != nil {
		return nil, err
	}
	if m.smsFailures, err = meter.Int64Counter("portal.sms.failures",
		metric.WithDescription("SMS deliveries that returned an error")); err != nil {
		return nil, err
	}
	if m.auditFailures, err = meter.Int64Counter("portal.audit.failures",
		metric.WithDescription("Audit records that could not be persisted or published")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) OTPIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.otpIssued.Add(ctx, 1)
}

func (m *Metrics) OTPVerified(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.otpVerified.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
}

func (m *Metrics) OTPThrottled(ctx context.Context) {
	if m == nil {
		return
	}
	m.otpThrottled.Add(ctx, 1)
}

func (m *Metrics) SMSFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.smsFailures.Add(ctx, 1)
}

func (m *Metrics) AuditFailed(ctx context.Context, sink string) {
	if m == nil {
		return
	}
	m.auditFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("sink", sink)))
}
