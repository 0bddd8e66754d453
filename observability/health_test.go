package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func staticCheck(name string, status HealthStatus) HealthCheck {
	return HealthCheck{
		Name: name,
		Check: func(context.Context) HealthCheckResult {
			return HealthCheckResult{Status: status}
		},
	}
}

func TestHealthChecker_Report(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		want     HealthStatus
	}{
		{"no checks", nil, HealthStatusHealthy},
		{"all healthy", []HealthStatus{HealthStatusHealthy, HealthStatusHealthy}, HealthStatusHealthy},
		{"one degraded", []HealthStatus{HealthStatusHealthy, HealthStatusDegraded}, HealthStatusDegraded},
		{"unhealthy wins", []HealthStatus{HealthStatusDegraded, HealthStatusUnhealthy}, HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, s := range tt.statuses {
				hc.Register(staticCheck(string(rune('a'+i)), s))
			}
			report := hc.Report(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %v, want %v", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.statuses) {
				t.Errorf("Checks = %d, want %d", len(report.Checks), len(tt.statuses))
			}
		})
	}
}

func TestHealthChecker_CachedCheck(t *testing.T) {
	hc := NewHealthChecker()
	now := time.Unix(0, 0)
	hc.now = func() time.Time { return now }

	var calls atomic.Int32
	hc.Register(HealthCheck{
		Name: "store",
		TTL:  time.Minute,
		Check: func(context.Context) HealthCheckResult {
			calls.Add(1)
			return HealthCheckResult{Status: HealthStatusHealthy}
		},
	})

	hc.Check(context.Background())
	hc.Check(context.Background())
	if got := calls.Load(); got != 1 {
		t.Errorf("calls within TTL = %d, want 1", got)
	}

	now = now.Add(2 * time.Minute)
	hc.Check(context.Background())
	if got := calls.Load(); got != 2 {
		t.Errorf("calls after TTL = %d, want 2", got)
	}
}

func TestHealthChecker_RegisterReplaces(t *testing.T) {
	hc := NewHealthChecker()
	hc.Register(staticCheck("store", HealthStatusUnhealthy))
	hc.Register(staticCheck("store", HealthStatusHealthy))

	report := hc.Report(context.Background())
	if len(report.Checks) != 1 {
		t.Fatalf("Checks = %d, want 1", len(report.Checks))
	}
	if report.Status != HealthStatusHealthy {
		t.Errorf("Status = %v, want healthy", report.Status)
	}
}

func TestHealthChecker_Handler(t *testing.T) {
	tests := []struct {
		status HealthStatus
		code   int
	}{
		{HealthStatusHealthy, http.StatusOK},
		{HealthStatusDegraded, http.StatusOK},
		{HealthStatusUnhealthy, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			hc := NewHealthChecker()
			hc.Register(staticCheck("store", tt.status))

			w := httptest.NewRecorder()
			hc.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

			if w.Code != tt.code {
				t.Errorf("StatusCode = %d, want %d", w.Code, tt.code)
			}
			var report HealthReport
			if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if report.Status != tt.status {
				t.Errorf("body status = %v, want %v", report.Status, tt.status)
			}
		})
	}
}

func TestPingHealthCheck(t *testing.T) {
	ok := PingHealthCheck("store", func(context.Context) error { return nil }, time.Second)
	if got := ok.Check(context.Background()).Status; got != HealthStatusHealthy {
		t.Errorf("Status = %v, want healthy", got)
	}

	bad := PingHealthCheck("store", func(context.Context) error { return errors.New("refused") }, time.Second)
	result := bad.Check(context.Background())
	if result.Status != HealthStatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", result.Status)
	}
	if result.Message != "ping failed: refused" {
		t.Errorf("Message = %q", result.Message)
	}
}

func TestPingHealthCheck_Timeout(t *testing.T) {
	check := PingHealthCheck("store", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, 10*time.Millisecond)

	if got := check.Check(context.Background()).Status; got != HealthStatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got)
	}
}

func TestWarmHealthCheck(t *testing.T) {
	warm := 1
	check := WarmHealthCheck("refcache", func() (int, int) { return warm, 3 })

	result := check.Check(context.Background())
	if result.Status != HealthStatusDegraded {
		t.Errorf("Status = %v, want degraded", result.Status)
	}
	if result.Details["warm"] != "1/3" {
		t.Errorf("warm detail = %q, want 1/3", result.Details["warm"])
	}

	warm = 3
	if got := check.Check(context.Background()).Status; got != HealthStatusHealthy {
		t.Errorf("Status = %v, want healthy", got)
	}
}
