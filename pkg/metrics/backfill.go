package metrics

import "github.com/prometheus/client_golang/prometheus"

// BackfillMetrics counts rows touched by each backfill step.
type BackfillMetrics struct {
	matched  *prometheus.CounterVec
	modified *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewBackfillMetrics registers the backfill collectors on the provided registerer.
func NewBackfillMetrics(reg prometheus.Registerer) *BackfillMetrics {
	if reg == nil {
		return &BackfillMetrics{}
	}
	matched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backfill_rows_matched_total",
		Help:      "Rows selected by a backfill step.",
	}, []string{"step"})
	modified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backfill_rows_modified_total",
		Help:      "Rows written by a backfill step.",
	}, []string{"step"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backfill_row_failures_total",
		Help:      "Rows a backfill step failed to write.",
	}, []string{"step"})
	reg.MustRegister(matched, modified, failures)
	return &BackfillMetrics{matched: matched, modified: modified, failures: failures}
}

// ObserveStep adds a step's counts.
func (b *BackfillMetrics) ObserveStep(step string, matched, modified, failed int64) {
	if b == nil || b.matched == nil {
		return
	}
	label := normalizeLabel(step)
	b.matched.WithLabelValues(label).Add(float64(matched))
	b.modified.WithLabelValues(label).Add(float64(modified))
	if failed > 0 {
		b.failures.WithLabelValues(label).Add(float64(failed))
	}
}
