// Package metrics holds collectors shared by every document store.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"coffeereg/pkg/platform/sentinel"
)

// Metrics holds store level Prometheus collectors.
type Metrics struct {
	StoreOperationLatency *prometheus.HistogramVec
	StoreErrors           *prometheus.CounterVec
}

// New registers collectors on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors on reg. Tests pass a fresh registry so
// repeated construction does not panic.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StoreOperationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coffeereg_store_operation_latency_seconds",
			Help:    "Latency of document store operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"store", "operation"}),
		StoreErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_store_errors_total",
			Help: "Store operations that returned an unexpected error",
		}, []string{"store", "operation"}),
	}
}

// ObserveStoreOp records one store call. Not-found results are expected
// outcomes and are not counted as errors. Nil receivers are allowed so stores
// can run without metrics.
func (m *Metrics) ObserveStoreOp(store, op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.StoreOperationLatency.WithLabelValues(store, op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		m.StoreErrors.WithLabelValues(store, op).Inc()
	}
}
