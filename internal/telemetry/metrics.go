// Package telemetry provides the Prometheus metrics and OpenTelemetry tracing
// used by the storefront client.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/unikraft-shop/storefront/internal/domain/session"
)

// Metrics holds all Prometheus metrics for the storefront client.
// Pass to components that need to record metrics.
type Metrics struct {
	APIRequests        *prometheus.CounterVec
	APIDuration        *prometheus.HistogramVec
	SessionTransitions *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		APIRequests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "api_requests_total",
				Help:      "Total number of storefront API calls",
			},
			[]string{"endpoint", "outcome"}, // outcome=ok/auth_error/session_expired/...
		),
		APIDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "storefront",
				Name:      "api_request_duration_seconds",
				Help:      "API call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		SessionTransitions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "storefront",
				Name:      "session_transitions_total",
				Help:      "Session state changes by origin and target state",
			},
			[]string{"from", "to"},
		),
	}
}

// ObserveTransition counts a session change. It is shaped to be passed to
// session.WithTransitionHook.
func (m *Metrics) ObserveTransition(c session.Change) {
	m.SessionTransitions.WithLabelValues(c.From.String(), c.To.String()).Inc()
}

// WriteTextfile writes everything gathered from g to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
