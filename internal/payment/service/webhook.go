package service

import (
	"context"
	"errors"

	"coffeereg/internal/audit"
	"coffeereg/internal/payment/gateway"
	"coffeereg/internal/payment/models"
	"coffeereg/internal/platform/tracer"
	regmodels "coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
)

// HandleWebhook applies a gateway webhook. It returns one of
// models.WebhookProcessed, WebhookDuplicate or WebhookIgnored; every error
// means the gateway should retry the delivery later.
//
// Only captured and failed payments change state. Repeats are harmless:
// UpdateStatus never rewrites a success and sends the confirmation only on
// the first one.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature, eventID string) (result string, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanWebhook)
	defer func() {
		span.SetAttributes(tracer.String("webhook.result", result))
		span.End(err)
		s.recordWebhook(result, err)
	}()

	if s.webhookSecret != "" && !gateway.VerifyWebhookSignature(s.webhookSecret, body, signature) {
		s.rejectSignature(ctx, "webhook", "", "event_id", eventID)
		span.AddEvent(tracer.EventSignatureRejected)
		return "", dErrors.New(dErrors.CodeInvalidSignature, "webhook signature is invalid")
	}

	ev, err := models.ParseWebhook(body)
	if err != nil {
		return "", err
	}
	span.SetAttributes(
		tracer.String(tracer.AttrWebhookEvent, ev.Event),
		tracer.String(tracer.AttrOrderID, ev.OrderID),
		tracer.String(tracer.AttrPaymentID, ev.PaymentID),
		tracer.String(tracer.AttrGatewayStatus, ev.Status),
	)

	var status regmodels.PaymentStatus
	switch ev.Status {
	case gateway.PaymentCaptured:
		status = regmodels.StatusSuccess
	case gateway.PaymentFailed:
		status = regmodels.StatusFailed
	default:
		s.logger.DebugContext(ctx, "webhook ignored",
			"event", ev.Event,
			"status", ev.Status,
			"payment_id", ev.PaymentID,
		)
		return models.WebhookIgnored, nil
	}

	if !s.claim(ctx, eventID) {
		return models.WebhookDuplicate, nil
	}
	defer func() {
		if err != nil {
			s.release(ctx, eventID)
		}
	}()

	reg, err := s.resolve(ctx, ev)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.logger.WarnContext(ctx, "webhook for unknown registration",
				"order_id", ev.OrderID,
				"payment_id", ev.PaymentID,
			)
			if s.ackUnknownWebhooks {
				return models.WebhookIgnored, nil
			}
		}
		return "", err
	}
	span.SetAttributes(tracer.String(tracer.AttrRegistrationID, reg.RegistrationID))

	outcome, err := s.UpdateStatus(ctx, regmodels.StatusUpdate{
		RegistrationID: reg.RegistrationID,
		Status:         status,
		PaymentID:      ev.PaymentID,
		Source:         audit.SourceWebhook,
	})
	if err != nil {
		return "", err
	}
	span.SetAttributes(tracer.Bool(tracer.AttrFirstSuccess, outcome.FirstSuccess()))
	return models.WebhookProcessed, nil
}

// resolve finds the registration a webhook refers to: by the order recorded
// at order creation, then by the order note, then by the legacy convention of
// using the registration ID as the order ID.
func (s *Service) resolve(ctx context.Context, ev *models.WebhookEvent) (*regmodels.Registration, error) {
	var lastErr error = dErrors.New(dErrors.CodeNotFound, "registration not found")
	try := func(find func(context.Context, string) (*regmodels.Registration, error), key string) *regmodels.Registration {
		if key == "" {
			return nil
		}
		reg, err := find(ctx, key)
		if err != nil {
			if !dErrors.HasCode(err, dErrors.CodeNotFound) {
				lastErr = err
			}
			return nil
		}
		return reg
	}

	if reg := try(s.registrations.FindByOrderID, ev.OrderID); reg != nil {
		return reg, nil
	}
	if reg := try(s.registrations.FindByRegistrationID, ev.Notes[gateway.NoteRegistrationID]); reg != nil {
		return reg, nil
	}
	if reg := try(s.registrations.FindByRegistrationID, ev.OrderID); reg != nil {
		return reg, nil
	}
	return nil, lastErr
}

// claim reports whether the delivery should be processed. A dedupe store
// failure lets the delivery through; reprocessing is safe.
func (s *Service) claim(ctx context.Context, eventID string) bool {
	if s.deliveries == nil || eventID == "" {
		return true
	}
	ok, err := s.deliveries.Claim(ctx, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook dedupe unavailable", "event_id", eventID, "error", err)
		return true
	}
	return ok
}

func (s *Service) release(ctx context.Context, eventID string) {
	if s.deliveries == nil || eventID == "" {
		return
	}
	if err := s.deliveries.Release(context.WithoutCancel(ctx), eventID); err != nil {
		s.logger.WarnContext(ctx, "failed to release webhook claim", "event_id", eventID, "error", err)
	}
}

func (s *Service) recordWebhook(result string, err error) {
	if err == nil {
		s.metrics.IncWebhookOutcome(result)
		return
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		s.metrics.IncWebhookOutcome(string(de.Code))
		return
	}
	s.metrics.IncWebhookOutcome(string(dErrors.CodeInternal))
}
