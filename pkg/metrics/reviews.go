package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReviewMetrics tracks review activity and the stats cache.
type ReviewMetrics struct {
	created      *prometheus.CounterVec
	statsCache   *prometheus.CounterVec
	pushFailures prometheus.Counter
}

// NewReviewMetrics registers the review collectors on the provided registerer.
func NewReviewMetrics(reg prometheus.Registerer) *ReviewMetrics {
	if reg == nil {
		return &ReviewMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reviews_created_total",
		Help:      "Reviews created, by target type.",
	}, []string{"target_type"})
	statsCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_stats_cache_total",
		Help:      "Review stats cache lookups, by result.",
	}, []string{"result"})
	pushFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_push_failures_total",
		Help:      "Review notifications that could not be delivered.",
	})
	reg.MustRegister(created, statsCache, pushFailures)
	return &ReviewMetrics{created: created, statsCache: statsCache, pushFailures: pushFailures}
}

// IncCreated counts a created review for the target type.
func (r *ReviewMetrics) IncCreated(targetType string) {
	if r == nil || r.created == nil {
		return
	}
	r.created.WithLabelValues(normalizeLabel(targetType)).Inc()
}

// ObserveCache counts a stats cache hit or miss.
func (r *ReviewMetrics) ObserveCache(hit bool) {
	if r == nil || r.statsCache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.statsCache.WithLabelValues(result).Inc()
}

// IncPushFailure counts a failed notification.
func (r *ReviewMetrics) IncPushFailure() {
	if r == nil || r.pushFailures == nil {
		return
	}
	r.pushFailures.Inc()
}
