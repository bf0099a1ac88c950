package service

import (
	"context"
	"log/slog"
	"time"

	"coffeereg/internal/audit"
	"coffeereg/internal/payment/metrics"
	"coffeereg/internal/platform/tracer"
	regmodels "coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
)

const (
	defaultCurrency      = "INR"
	defaultNotifyTimeout = 30 * time.Second
)

// Service orchestrates gateway orders, checkout verification, webhooks and
// reconciliation. Every path that can move a registration to success goes
// through UpdateStatus, which sends the confirmation exactly once.
type Service struct {
	registrations Registrations
	gateway       Gateway
	keySecret     string

	webhookSecret      string
	ackUnknownWebhooks bool
	deliveries         Deliveries
	notifier           Notifier
	notifyTimeout      time.Duration

	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
	logger         *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithNotifyTimeout bounds a confirmation send. The send is detached from the
// request context, so this is the only limit on it.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

// WithWebhookSecret enforces X-Razorpay-Signature on webhook bodies.
func WithWebhookSecret(secret string) Option {
	return func(s *Service) {
		s.webhookSecret = secret
	}
}

// WithDeliveries enables webhook dedupe by event ID.
func WithDeliveries(d Deliveries) Option {
	return func(s *Service) {
		s.deliveries = d
	}
}

// WithAckUnknownWebhooks acknowledges webhooks for unknown registrations
// instead of failing them.
func WithAckUnknownWebhooks(ack bool) Option {
	return func(s *Service) {
		s.ackUnknownWebhooks = ack
	}
}

func New(registrations Registrations, gw Gateway, keySecret string, opts ...Option) *Service {
	svc := &Service{
		registrations: registrations,
		gateway:       gw,
		keySecret:     keySecret,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc
}

// UpdateStatus applies a status change and, when it is the registration's
// first move into success, sends the confirmation. Notification failures are
// logged and never change the result.
func (s *Service) UpdateStatus(ctx context.Context, upd regmodels.StatusUpdate) (*regmodels.Outcome, error) {
	outcome, err := s.registrations.UpdateStatus(ctx, upd)
	if err != nil {
		return nil, err
	}
	if outcome.Applied {
		s.metrics.IncPaymentOutcome(upd.Source, string(outcome.Registration.PaymentStatus))
	}
	if outcome.FirstSuccess() {
		s.notify(ctx, outcome.Registration)
	}
	return outcome, nil
}

func (s *Service) notify(ctx context.Context, reg *regmodels.Registration) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, tracer.SpanNotificationRun,
		tracer.String(tracer.AttrRegistrationID, reg.RegistrationID),
		tracer.String(tracer.AttrEmailHash, tracer.HashIdentifier(reg.Email)),
	)
	err := s.notifier.Send(ctx, reg)
	span.End(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "confirmation not sent",
			"registration_id", reg.RegistrationID,
			"error", err,
		)
		s.emit(ctx, audit.ActionNotificationFailed, reg.RegistrationID, "", "error", err.Error())
		return
	}
	s.emit(ctx, audit.ActionNotificationSent, reg.RegistrationID, "")
}

// gatewayError converts a gateway failure into a retryable domain error.
func gatewayError(err error, msg string) error {
	return dErrors.Wrap(err, dErrors.CodeGateway, msg)
}

func (s *Service) emit(ctx context.Context, action audit.Action, registrationID, source string, details ...string) {
	if s.auditPublisher == nil {
		return
	}
	var d map[string]string
	for i := 0; i+1 < len(details); i += 2 {
		if details[i+1] == "" {
			continue
		}
		if d == nil {
			d = make(map[string]string, len(details)/2)
		}
		d[details[i]] = details[i+1]
	}
	s.auditPublisher.Emit(ctx, audit.Event{
		Action:         action,
		RegistrationID: registrationID,
		Source:         source,
		Details:        d,
	})
}
