package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/storefront/resilience"
)

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		StatusHealthy:   "healthy",
		StatusDegraded:  "degraded",
		StatusUnhealthy: "unhealthy",
		Status(42):      "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]Result
		want    Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", map[string]Result{"a": Healthy(""), "b": Healthy("")}, StatusHealthy},
		{"degraded", map[string]Result{"a": Healthy(""), "b": Degraded("")}, StatusDegraded},
		{"unhealthy wins", map[string]Result{"a": Degraded(""), "b": Unhealthy("", nil)}, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OverallStatus(tt.results); got != tt.want {
				t.Errorf("OverallStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("backend", func(context.Context) error { return nil })
	if r := ok.Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", r.Status)
	}

	boom := errors.New("connection refused")
	bad := NewPingChecker("backend", func(context.Context) error { return boom })
	r := bad.Check(context.Background())
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, boom) {
		t.Errorf("Check() = %+v", r)
	}
	if bad.Name() != "backend" {
		t.Errorf("Name() = %q", bad.Name())
	}
}

func TestCircuitChecker(t *testing.T) {
	if r := NewCircuitChecker("shopper", nil).Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("nil breaker status = %v", r.Status)
	}

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	c := NewCircuitChecker("shopper", cb)
	if c.Name() != "shopper-circuit" {
		t.Errorf("Name() = %q", c.Name())
	}
	if r := c.Check(context.Background()); r.Status != StatusHealthy {
		t.Errorf("closed status = %v", r.Status)
	}

	_ = cb.Execute(context.Background(), func(context.Context) error { return errors.New("500") })
	r := c.Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Errorf("open status = %v", r.Status)
	}
	if r.Details["state"] != "open" {
		t.Errorf("details = %v", r.Details)
	}
}

func TestAggregatorReport(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{MaxParallel: 2})
	agg.Register("zeta", NewCheckerFunc("zeta", func(context.Context) Result { return Healthy("ok") }))
	agg.Register("alpha", NewCheckerFunc("alpha", func(context.Context) Result { return Degraded("slow") }))
	agg.Register("zeta", NewCheckerFunc("zeta", func(context.Context) Result { return Healthy("replaced") }))

	if names := agg.CheckerNames(); len(names) != 2 || names[0] != "zeta" || names[1] != "alpha" {
		t.Fatalf("CheckerNames() = %v", names)
	}

	report := agg.Report(context.Background())
	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", report.Status)
	}
	if len(report.Checks) != 2 || report.Checks[0].Name != "alpha" || report.Checks[1].Message != "replaced" {
		t.Errorf("Checks = %+v", report.Checks)
	}
	for _, c := range report.Checks {
		if c.Timestamp.IsZero() {
			t.Errorf("%s has no timestamp", c.Name)
		}
	}
}

func TestAggregatorTimeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	release := make(chan struct{})
	defer close(release)
	agg.Register("stuck", NewCheckerFunc("stuck", func(context.Context) Result {
		<-release
		return Healthy("late")
	}))

	r, err := agg.Check(context.Background(), "stuck")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("Check() = %+v", r)
	}

	if _, err := agg.Check(context.Background(), "missing"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("Check(missing) error = %v", err)
	}
}
