package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts registration outcomes and payment status transitions.
type Metrics struct {
	Registrations     *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	StaleUpdates      *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_registrations_total",
			Help: "Registration submissions by outcome (created, reused, conflict)",
		}, []string{"outcome"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_payment_status_transitions_total",
			Help: "Applied payment status changes by target status and source",
		}, []string{"status", "source"}),
		StaleUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_payment_stale_updates_total",
			Help: "Status updates ignored because the registration was already paid",
		}, []string{"source"}),
	}
}

func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncTransition(status, source string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(status, source).Inc()
}

func (m *Metrics) IncStaleUpdate(source string) {
	if m == nil {
		return
	}
	m.StaleUpdates.WithLabelValues(source).Inc()
}
