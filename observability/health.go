package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// HealthStatus is the outcome of one check or of the whole report.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// healthRank orders statuses so the report takes the worst one.
var healthRank = map[HealthStatus]int{
	HealthStatusHealthy:   0,
	HealthStatusDegraded:  1,
	HealthStatusUnhealthy: 2,
}

// HealthCheck is one named check of a dependency. A positive TTL reuses the
// last result for that long, so /healthz polling does not hammer the store.
type HealthCheck struct {
	Name  string
	Check func(context.Context) HealthCheckResult
	TTL   time.Duration
}

// HealthCheckResult is what a single check reports.
type HealthCheckResult struct {
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthReport is served at /healthz.
type HealthReport struct {
	Status HealthStatus                 `json:"status"`
	Checks map[string]HealthCheckResult `json:"checks"`
}

// HealthChecker runs the registered checks on demand.
type HealthChecker struct {
	mu     sync.Mutex
	checks []HealthCheck
	last   map[string]timedResult
	now    func() time.Time
}

type timedResult struct {
	HealthCheckResult
	at time.Time
}

// NewHealthChecker returns a checker with no checks; its report is healthy.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{last: make(map[string]timedResult), now: time.Now}
}

// Register adds a check, replacing any check with the same name.
func (hc *HealthChecker) Register(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.last, check.Name)
	for i := range hc.checks {
		if hc.checks[i].Name == check.Name {
			hc.checks[i] = check
			return
		}
	}
	hc.checks = append(hc.checks, check)
}

// Check runs every check in parallel and returns the results by name.
func (hc *HealthChecker) Check(ctx context.Context) map[string]HealthCheckResult {
	hc.mu.Lock()
	checks := append([]HealthCheck(nil), hc.checks...)
	hc.mu.Unlock()

	results := make([]HealthCheckResult, len(checks))
	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Go(func() { results[i] = hc.run(ctx, c) })
	}
	wg.Wait()

	out := make(map[string]HealthCheckResult, len(checks))
	for i, c := range checks {
		out[c.Name] = results[i]
	}
	return out
}

func (hc *HealthChecker) run(ctx context.Context, c HealthCheck) HealthCheckResult {
	if c.TTL > 0 {
		hc.mu.Lock()
		prev, ok := hc.last[c.Name]
		hc.mu.Unlock()
		if ok && hc.now().Sub(prev.at) < c.TTL {
			return prev.HealthCheckResult
		}
	}

	result := c.Check(ctx)
	if c.TTL > 0 {
		hc.mu.Lock()
		hc.last[c.Name] = timedResult{HealthCheckResult: result, at: hc.now()}
		hc.mu.Unlock()
	}
	return result
}

// Report runs the checks and takes the worst status as the overall one.
func (hc *HealthChecker) Report(ctx context.Context) HealthReport {
	report := HealthReport{Status: HealthStatusHealthy, Checks: hc.Check(ctx)}
	for _, r := range report.Checks {
		if healthRank[r.Status] > healthRank[report.Status] {
			report.Status = r.Status
		}
	}
	return report
}

// Handler serves the report. Only unhealthy answers 503; a cold cache is
// degraded but still serves traffic.
func (hc *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := hc.Report(r.Context())
		code := http.StatusOK
		if report.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(report)
	}
}

// PingHealthCheck marks the store unhealthy when ping fails within timeout.
// Results are reused for 10s.
func PingHealthCheck(name string, ping func(context.Context) error, timeout time.Duration) HealthCheck {
	return HealthCheck{
		Name: name,
		TTL:  10 * time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := ping(ctx); err != nil {
				return HealthCheckResult{Status: HealthStatusUnhealthy, Message: "ping failed: " + err.Error()}
			}
			return HealthCheckResult{Status: HealthStatusHealthy, Message: "store reachable"}
		},
	}
}

// WarmHealthCheck is degraded until every reference category has a published
// mapping. ready reports the warm and total category counts.
func WarmHealthCheck(name string, ready func() (warm, total int)) HealthCheck {
	return HealthCheck{
		Name: name,
		Check: func(context.Context) HealthCheckResult {
			warm, total := ready()
			result := HealthCheckResult{
				Status:  HealthStatusHealthy,
				Message: "reference cache warm",
				Details: map[string]string{"warm": fmt.Sprintf("%d/%d", warm, total)},
			}
			if warm < total {
				result.Status = HealthStatusDegraded
				result.Message = "reference cache cold"
			}
			return result
		},
	}
}
