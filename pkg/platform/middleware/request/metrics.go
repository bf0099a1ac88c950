package request

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records HTTP latency per route, method and status class.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coffeereg_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status class",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"route", "method", "status"}),
	}
}

func (m *Metrics) Observe(route, method string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, method, statusClass(status)).Observe(elapsed.Seconds())
}

// statusClass folds codes into 2xx/4xx/5xx so label cardinality stays small.
func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}
