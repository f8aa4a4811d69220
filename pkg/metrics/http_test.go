package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/v1/reviews", http.MethodPost, http.StatusCreated, 40*time.Millisecond)
	m.Observe("/api/v1/reviews", http.MethodPost, http.StatusConflict, 10*time.Millisecond)
	m.Observe("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "gigbook_http_request_duration_seconds", "route", "/api/v1/reviews"); err != nil {
		t.Fatalf("fetch latency: %v", err)
	} else if got < 0.049 {
		t.Fatalf("expected latency sum of both requests, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "gigbook_http_requests_total", "route", "unknown"); err != nil {
		t.Fatalf("fetch unmatched route: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown route count 1, got %f", got)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("/", http.MethodGet, http.StatusOK, time.Millisecond)
	NewHTTPMetrics(nil).Observe("/", http.MethodGet, http.StatusOK, time.Millisecond)
}
