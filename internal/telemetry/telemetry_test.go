package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewProviders_EmptyEndpointIsNoop(t *testing.T) {
	p, err := NewProviders(context.Background(), "  ", "portal-test", false)
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if p.TracerProvider == nil || p.MeterProvider == nil {
		t.Fatal("expected providers")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestGRPCTarget(t *testing.T) {
	cases := []struct {
		in       string
		insecure bool
		want     string
		wantIns  bool
	}{
		{"localhost:4317", false, "localhost:4317", true},
		{"https://collector:4317/v1/traces", false, "collector:4317", false},
		{"https://collector:4317", true, "collector:4317", true},
	}
	for _, tc := range cases {
		got, ins, err := grpcTarget(tc.in, tc.insecure)
		if err != nil {
			t.Fatalf("grpcTarget(%q): %v", tc.in, err)
		}
		if got != tc.want || ins != tc.wantIns {
			t.Errorf("grpcTarget(%q) = %q, %v; want %q, %v", tc.in, got, ins, tc.want, tc.wantIns)
		}
	}
	if _, _, err := grpcTarget("http://", false); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestMetrics_CountersRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.OTPIssued(ctx)
	m.OTPIssued(ctx)
	m.SMSFailed(ctx)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[md.Name] += dp.Value
				}
			}
		}
	}
	if totals["portal.otp.issued"] != 2 || totals["portal.sms.failures"] != 1 {
		t.Fatalf("unexpected totals: %v", totals)
	}
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.OTPIssued(context.Background())
	m.AuditFailed(context.Background(), "db")
}
