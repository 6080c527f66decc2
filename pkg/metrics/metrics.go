package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	LeadsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_processed_total",
			Help: "Total number of webhook payloads processed per partner and outcome (count)",
		},
		[]string{"partner", "status"},
	)

	LeadProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lead_processing_duration_ms",
			Help:    "Processing duration for a webhook payload in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"partner"},
	)

	DedupChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_checks_total",
			Help: "Total number of lead deduplication checks (count)",
		},
		[]string{"status"},
	)

	DedupCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dedup_check_duration_ms",
			Help:    "Duration of lead deduplication checks in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"status"},
	)

	SinkPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_published_total",
			Help: "Total number of lead events handed to the sink (count)",
		},
		[]string{"sink", "status"},
	)

	SinkPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sink_publish_duration_ms",
			Help:    "Duration of lead event publishing in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"sink"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"service", "strategy"},
	)
)

var (
	leadOnce           sync.Once
	circuitBreakerOnce sync.Once
)

// RegisterLeadMetrics registers the webhook, dedup and sink collectors with
// the default registry. Safe to call more than once.
func RegisterLeadMetrics() {
	leadOnce.Do(func() {
		prometheus.MustRegister(LeadsProcessedTotal)
		prometheus.MustRegister(LeadProcessingDuration)
		prometheus.MustRegister(DedupChecksTotal)
		prometheus.MustRegister(DedupCheckDuration)
		prometheus.MustRegister(SinkPublishedTotal)
		prometheus.MustRegister(SinkPublishDuration)
		prometheus.MustRegister(FallbackUsageTotal)
	})
}

func RegisterCircuitBreakerMetrics() {
	circuitBreakerOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func IncLeadProcessed(partner, status string) {
	LeadsProcessedTotal.WithLabelValues(partner, status).Inc()
}

func ObserveLeadDuration(partner string, duration time.Duration) {
	LeadProcessingDuration.WithLabelValues(partner).Observe(float64(duration.Milliseconds()))
}

func ObserveDedupDuration(duration time.Duration, status string) {
	DedupChecksTotal.WithLabelValues(status).Inc()
	DedupCheckDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func ObserveSinkPublish(sink string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SinkPublishedTotal.WithLabelValues(sink, status).Inc()
	SinkPublishDuration.WithLabelValues(sink).Observe(float64(duration.Milliseconds()))
}
