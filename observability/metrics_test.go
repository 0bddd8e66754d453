package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMetricsHandler(t *testing.T) {
	RefCacheEventsTotal.WithLabelValues("city", "miss").Inc()
	StoreFetchesTotal.WithLabelValues("city", "success").Inc()
	HTTPRequestsTotal.WithLabelValues("GET", "200", "hr.example").Inc()

	w := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != 200 {
		t.Fatalf("StatusCode = %d, want 200", w.Code)
	}

	body := w.Body.String()
	for _, metric := range []string{
		"hrref_refcache_events_total",
		"hrref_store_fetches_total",
		"hrref_http_requests_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("Metrics output missing: %s", metric)
		}
	}
}

func TestGetCounterValue(t *testing.T) {
	before, err := GetCounterValue(LookupMissesTotal, "position")
	if err != nil {
		t.Fatalf("GetCounterValue() error = %v", err)
	}

	LookupMissesTotal.WithLabelValues("position").Add(2)

	after, err := GetCounterValue(LookupMissesTotal, "position")
	if err != nil {
		t.Fatalf("GetCounterValue() error = %v", err)
	}
	if after-before != 2 {
		t.Errorf("counter delta = %v, want 2", after-before)
	}
}

func TestGetCounterValue_WrongLabelCount(t *testing.T) {
	if _, err := GetCounterValue(RefCacheEventsTotal, "city"); err == nil {
		t.Error("expected error for missing label")
	}
}

func TestGetGaugeValue(t *testing.T) {
	RefCacheEntries.WithLabelValues("division").Set(7)

	got, err := GetGaugeValue(RefCacheEntries, "division")
	if err != nil {
		t.Fatalf("GetGaugeValue() error = %v", err)
	}
	if got != 7 {
		t.Errorf("gauge = %v, want 7", got)
	}
}
