package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers gateway calls, payment outcomes and webhook handling.
type Metrics struct {
	GatewayLatency      *prometheus.HistogramVec
	GatewayCircuitState prometheus.Gauge
	PaymentOutcomes     *prometheus.CounterVec
	SignatureRejections *prometheus.CounterVec
	WebhookOutcomes     *prometheus.CounterVec
	ReconcileApplied    *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GatewayLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coffeereg_gateway_request_duration_seconds",
			Help:    "Latency of payment gateway calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),
		GatewayCircuitState: f.NewGauge(prometheus.GaugeOpts{
			Name: "coffeereg_gateway_circuit_open",
			Help: "1 while the gateway circuit breaker is open",
		}),
		PaymentOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_payment_outcomes_total",
			Help: "Payment results by source and mapped status",
		}, []string{"source", "status"}),
		SignatureRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_signature_rejections_total",
			Help: "Payment callbacks or webhooks rejected for a bad signature",
		}, []string{"kind"}),
		WebhookOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_webhook_outcomes_total",
			Help: "Webhook deliveries by outcome",
		}, []string{"outcome"}),
		ReconcileApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "coffeereg_reconcile_results_total",
			Help: "Stale registrations examined by the reconcile worker, by result",
		}, []string{"result"}),
	}
}

// ObserveGatewayCall records one gateway request.
func (m *Metrics) ObserveGatewayCall(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GatewayLatency.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) SetCircuitOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.GatewayCircuitState.Set(1)
		return
	}
	m.GatewayCircuitState.Set(0)
}

func (m *Metrics) IncPaymentOutcome(source, status string) {
	if m == nil {
		return
	}
	m.PaymentOutcomes.WithLabelValues(source, status).Inc()
}

func (m *Metrics) IncSignatureRejection(kind string) {
	if m == nil {
		return
	}
	m.SignatureRejections.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncWebhookOutcome(outcome string) {
	if m == nil {
		return
	}
	m.WebhookOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncReconcile(result string) {
	if m == nil {
		return
	}
	m.ReconcileApplied.WithLabelValues(result).Inc()
}
