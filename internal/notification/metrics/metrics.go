package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

type Metrics struct {
	Notifications *prometheus.CounterVec
	MailLatency   prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_notifications_total",
			Help: "Payment confirmations by outcome",
		}, []string{"outcome"}),
		MailLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "coffeereg_mail_send_duration_seconds",
			Help:    "Latency of mail API calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncNotification(outcome string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveMailSend(start time.Time) {
	if m == nil {
		return
	}
	m.MailLatency.Observe(time.Since(start).Seconds())
}
