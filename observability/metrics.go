package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CDPMetrics tracks the engine-facing RPC surface: request volume, failures
// and latency per operation, plus gauges for the stability pool.
type CDPMetrics struct {
	requests  *prometheus.CounterVec
	errors    *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	poolSize  prometheus.Gauge
	poolEpoch prometheus.Gauge
}

var (
	cdpMetricsOnce sync.Once
	cdpRegistry    *CDPMetrics
)

// CDP returns the process-wide metrics registry for the stablecoin engine.
func CDP() *CDPMetrics {
	cdpMetricsOnce.Do(func() {
		cdpRegistry = &CDPMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nusd",
				Subsystem: "cdp",
				Name:      "requests_total",
				Help:      "Count of engine operations by name.",
			}, []string{"operation"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nusd",
				Subsystem: "cdp",
				Name:      "errors_total",
				Help:      "Count of failed engine operations by name.",
			}, []string{"operation"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "nusd",
				Subsystem: "cdp",
				Name:      "latency_seconds",
				Help:      "Latency of engine operations by name.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "nusd",
				Subsystem: "cdp",
				Name:      "stability_pool_nusd",
				Help:      "Current nUSD held by the stability pool in base units.",
			}),
			poolEpoch: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "nusd",
				Subsystem: "cdp",
				Name:      "stability_pool_epoch",
				Help:      "Current stability pool epoch counter.",
			}),
		}
		prometheus.MustRegister(
			cdpRegistry.requests,
			cdpRegistry.errors,
			cdpRegistry.latency,
			cdpRegistry.poolSize,
			cdpRegistry.poolEpoch,
		)
	})
	return cdpRegistry
}

func normaliseOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	if operation == "" {
		return "unknown"
	}
	return operation
}

// Observe records one engine operation with its outcome and duration.
func (m *CDPMetrics) Observe(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	operation = normaliseOperation(operation)
	m.requests.WithLabelValues(operation).Inc()
	if err != nil {
		m.errors.WithLabelValues(operation).Inc()
	}
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetPoolSize updates the stability pool balance gauge.
func (m *CDPMetrics) SetPoolSize(baseUnits float64) {
	if m == nil {
		return
	}
	m.poolSize.Set(baseUnits)
}

// SetPoolEpoch updates the stability pool epoch gauge.
func (m *CDPMetrics) SetPoolEpoch(epoch uint64) {
	if m == nil {
		return
	}
	m.poolEpoch.Set(float64(epoch))
}
