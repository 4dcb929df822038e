/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package semaphore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-flowctl/internal/libinfo"
)

// MetricsCollector represents a collector of metrics to analyze how the semaphore is used.
type MetricsCollector interface {
	// SetInUse sets the number of currently admitted holders.
	SetInUse(int)

	// SetWaiting sets the number of queued callers.
	SetWaiting(int)

	// AddPurged increments the total number of callers failed by Purge.
	AddPurged(int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// If this list is not empty, PrometheusMetrics.MustCurryWith must be called further with the same labels.
	CurriedLabelNames []string
}

// PrometheusMetrics represents Prometheus metrics for the semaphore.
type PrometheusMetrics struct {
	InUse       *prometheus.GaugeVec
	Waiting     *prometheus.GaugeVec
	PurgedTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	inUse := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "semaphore_in_use",
			Help:        "Number of currently admitted semaphore holders.",
			ConstLabels: libinfo.WithVersionLabel(opts.ConstLabels),
		},
		opts.CurriedLabelNames,
	)

	waiting := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "semaphore_waiting",
			Help:        "Number of callers queued for semaphore admission.",
			ConstLabels: libinfo.WithVersionLabel(opts.ConstLabels),
		},
		opts.CurriedLabelNames,
	)

	purgedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "semaphore_purged_total",
			Help:        "Number of queued callers failed by purge.",
			ConstLabels: libinfo.WithVersionLabel(opts.ConstLabels),
		},
		opts.CurriedLabelNames,
	)

	return &PrometheusMetrics{
		InUse:       inUse,
		Waiting:     waiting,
		PurgedTotal: purgedTotal,
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		InUse:       pm.InUse.MustCurryWith(labels),
		Waiting:     pm.Waiting.MustCurryWith(labels),
		PurgedTotal: pm.PurgedTotal.MustCurryWith(labels),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.InUse, pm.Waiting, pm.PurgedTotal)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.InUse)
	prometheus.Unregister(pm.Waiting)
	prometheus.Unregister(pm.PurgedTotal)
}

// SetInUse sets the number of currently admitted holders.
func (pm *PrometheusMetrics) SetInUse(n int) {
	pm.InUse.With(nil).Set(float64(n))
}

// SetWaiting sets the number of queued callers.
func (pm *PrometheusMetrics) SetWaiting(n int) {
	pm.Waiting.With(nil).Set(float64(n))
}

// AddPurged increments the total number of callers failed by Purge.
func (pm *PrometheusMetrics) AddPurged(n int) {
	pm.PurgedTotal.With(nil).Add(float64(n))
}

type disabledMetrics struct{}

func (disabledMetrics) SetInUse(int)   {}
func (disabledMetrics) SetWaiting(int) {}
func (disabledMetrics) AddPurged(int)  {}

var disabledMetricsCollector = disabledMetrics{}
