package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	payouts *prometheus.CounterVec
	swaps   *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking outbound protocol effects.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nusd",
				Subsystem: "events",
				Name:      "collateral_payouts_total",
				Help:      "Count of collateral payout requests segmented by asset.",
			}, []string{"asset"}),
			swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "nusd",
				Subsystem: "events",
				Name:      "swap_requests_total",
				Help:      "Count of swap intents segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(eventRegistry.payouts, eventRegistry.swaps)
	})
	return eventRegistry
}

func normaliseLabel(value, fallback string) string {
	value = strings.TrimSpace(strings.ToUpper(value))
	if value == "" {
		return fallback
	}
	return value
}

// RecordPayout increments the payout counter for the supplied asset ticker.
func (m *eventMetrics) RecordPayout(asset string) {
	if m == nil {
		return
	}
	m.payouts.WithLabelValues(normaliseLabel(asset, "UNKNOWN")).Inc()
}

// RecordSwap increments the swap counter with the supplied outcome label.
func (m *eventMetrics) RecordSwap(outcome string) {
	if m == nil {
		return
	}
	m.swaps.WithLabelValues(normaliseLabel(outcome, "UNKNOWN")).Inc()
}
