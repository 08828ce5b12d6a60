// Package metrics provides Prometheus metrics for tokentrim.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all tokentrim metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Optimization pipeline
	OptimizationsTotal   *prometheus.CounterVec
	OptimizationDuration prometheus.Histogram
	TokensSaved          prometheus.Histogram
	SavingsPercentage    prometheus.Histogram
	EditsApplied         *prometheus.CounterVec
	EditsRequiringReview prometheus.Counter
	ProtectedRegions     prometheus.Histogram

	// Concept resolution
	ResolutionsTotal    *prometheus.CounterVec
	ResolutionCacheHits *prometheus.CounterVec

	// Feedback
	FeedbackTotal *prometheus.CounterVec

	// Rate limiting
	RateLimitedRequests *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokentrim"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		OptimizationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimizations_total",
				Help:      "Total number of optimization requests",
			},
			[]string{"status", "aggressive"},
		),
		OptimizationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "optimization_duration_seconds",
				Help:      "Optimization pipeline duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		TokensSaved: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tokens_saved",
				Help:      "Tokens saved per optimization",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
			},
		),
		SavingsPercentage: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "savings_percentage",
				Help:      "Percentage of tokens saved per optimization",
				Buckets:   []float64{0, 5, 10, 15, 20, 30, 40, 50, 75},
			},
		),
		EditsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edits_applied_total",
				Help:      "Total edits applied, by category",
			},
			[]string{"category"},
		),
		EditsRequiringReview: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edits_requiring_review_total",
				Help:      "Total edits held back for review",
			},
		),
		ProtectedRegions: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "protected_regions",
				Help:      "Protected regions detected per prompt",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
			},
		),

		ResolutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "concept_resolutions_total",
				Help:      "Total concept resolutions, by outcome",
			},
			[]string{"outcome"},
		),
		ResolutionCacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "concept_cache_requests_total",
				Help:      "Resolution cache requests, by result",
			},
			[]string{"result"},
		),

		FeedbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feedback_total",
				Help:      "Total feedback decisions, by outcome",
			},
			[]string{"accepted"},
		),

		RateLimitedRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_requests_total",
				Help:      "Requests rejected by rate limiting",
			},
			[]string{"client"},
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusToString(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordOptimization records one pipeline run.
func (m *Metrics) RecordOptimization(success, aggressive bool, duration float64, tokensSaved int, savingsPct float64) {
	status := "success"
	if !success {
		status = "error"
	}
	agg := "false"
	if aggressive {
		agg = "true"
	}
	m.OptimizationsTotal.WithLabelValues(status, agg).Inc()
	if !success {
		return
	}
	m.OptimizationDuration.Observe(duration)
	m.TokensSaved.Observe(float64(tokensSaved))
	m.SavingsPercentage.Observe(savingsPct)
}

// RecordEdits records applied and held-back edit counts.
func (m *Metrics) RecordEdits(appliedByCategory map[string]int, review int) {
	for category, n := range appliedByCategory {
		m.EditsApplied.WithLabelValues(category).Add(float64(n))
	}
	m.EditsRequiringReview.Add(float64(review))
}

// RecordProtectedRegions records how many protected regions a prompt had.
func (m *Metrics) RecordProtectedRegions(n int) {
	m.ProtectedRegions.Observe(float64(n))
}

// RecordResolution records one concept resolution outcome.
func (m *Metrics) RecordResolution(outcome string) {
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheRequest records one resolution cache lookup.
func (m *Metrics) RecordCacheRequest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ResolutionCacheHits.WithLabelValues(result).Inc()
}

// RecordFeedback records one feedback decision.
func (m *Metrics) RecordFeedback(accepted bool) {
	val := "false"
	if accepted {
		val = "true"
	}
	m.FeedbackTotal.WithLabelValues(val).Inc()
}

// RecordRateLimited records a rate limited request.
func (m *Metrics) RecordRateLimited(clientIP string) {
	m.RateLimitedRequests.WithLabelValues(clientIP).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
