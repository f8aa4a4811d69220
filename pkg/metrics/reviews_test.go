package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestReviewMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReviewMetrics(reg)
	m.IncCreated("artist")
	m.IncCreated("artist")
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)
	m.IncPushFailure()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "gigbook_reviews_created_total", "target_type", "artist"); err != nil || got != 2 {
		t.Fatalf("expected created=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "gigbook_review_stats_cache_total", "result", "miss"); err != nil || got != 2 {
		t.Fatalf("expected misses=2, got %f (%v)", got, err)
	}
	mf := findMetricFamily(mfs, "gigbook_review_push_failures_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one push failure")
	}
}

func TestBackfillMetricsObserveStep(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBackfillMetrics(reg)
	m.ObserveStep("pro_features", 4, 3, 1)
	m.ObserveStep("pro_features", 4, 0, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "gigbook_backfill_rows_matched_total", "step", "pro_features"); err != nil || got != 8 {
		t.Fatalf("expected matched=8, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "gigbook_backfill_rows_modified_total", "step", "pro_features"); err != nil || got != 3 {
		t.Fatalf("expected modified=3, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "gigbook_backfill_row_failures_total", "step", "pro_features"); err != nil || got != 1 {
		t.Fatalf("expected failures=1, got %f (%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewReviewMetrics(nil).IncCreated("venue")
	NewBackfillMetrics(nil).ObserveStep("x", 1, 1, 1)
	var m *ReviewMetrics
	m.ObserveCache(true)
}
