/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-flowctl/internal/libinfo"
)

// MetricsCollector represents a collector of retry metrics.
type MetricsCollector interface {
	// IncAttempts increments the total number of attempts.
	IncAttempts()

	// IncExhausted increments the total number of retry chains that ran out of attempts.
	IncExhausted()
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for retry chains.
type PrometheusMetrics struct {
	AttemptsTotal  prometheus.Counter
	ExhaustedTotal prometheus.Counter
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	return &PrometheusMetrics{
		AttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "retry_attempts_total",
			Help:        "Number of attempts made by retry chains.",
			ConstLabels: libinfo.WithVersionLabel(opts.ConstLabels),
		}),
		ExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "retry_exhausted_total",
			Help:        "Number of retry chains that ran out of attempts.",
			ConstLabels: libinfo.WithVersionLabel(opts.ConstLabels),
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.AttemptsTotal, pm.ExhaustedTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.AttemptsTotal)
	prometheus.Unregister(pm.ExhaustedTotal)
}

// IncAttempts increments the total number of attempts.
func (pm *PrometheusMetrics) IncAttempts() {
	pm.AttemptsTotal.Inc()
}

// IncExhausted increments the total number of exhausted retry chains.
func (pm *PrometheusMetrics) IncExhausted() {
	pm.ExhaustedTotal.Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) IncAttempts()  {}
func (disabledMetrics) IncExhausted() {}

var disabledMetricsCollector = disabledMetrics{}
