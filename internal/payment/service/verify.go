package service

import (
	"context"
	"fmt"

	"coffeereg/internal/audit"
	"coffeereg/internal/payment/gateway"
	"coffeereg/internal/payment/models"
	"coffeereg/internal/platform/tracer"
	regmodels "coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
)

// VerifyAndCapture handles the checkout callback. The signature is checked
// before anything else; a mismatch touches neither the gateway nor the
// registration. Otherwise the payment is fetched, captured when only
// authorized, and its final state recorded: captured means success and
// anything else means failed.
//
// The order and payment must belong to the registration: an order linked to
// another registration is rejected before the gateway is called, and the
// fetched payment must carry the registration's order, notes and amount before
// it is captured or recorded.
//
// A gateway failure while fetching or capturing returns a retryable error and
// leaves the registration as it was.
func (s *Service) VerifyAndCapture(ctx context.Context, req *models.VerifyRequest) (_ *regmodels.Outcome, err error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyCapture,
		tracer.String(tracer.AttrRegistrationID, req.RegistrationID),
		tracer.String(tracer.AttrOrderID, req.OrderID),
		tracer.String(tracer.AttrPaymentID, req.PaymentID),
	)
	defer func() { span.End(err) }()

	if !gateway.VerifyCallbackSignature(s.keySecret, req.OrderID, req.PaymentID, req.Signature) {
		s.rejectSignature(ctx, "callback", req.RegistrationID,
			"order_id", req.OrderID,
			"payment_id", req.PaymentID,
		)
		span.AddEvent(tracer.EventSignatureRejected)
		return nil, dErrors.New(dErrors.CodeInvalidSignature, "payment signature is invalid")
	}

	reg, err := s.registrations.FindByRegistrationID(ctx, req.RegistrationID)
	if err != nil {
		return nil, err
	}
	if err := s.checkOrderOwner(ctx, reg, req.OrderID); err != nil {
		return nil, err
	}
	if gateway.ToSubunits(req.Amount) != gateway.ToSubunits(reg.Amount) {
		return nil, dErrors.New(dErrors.CodeValidation, "amount does not match the registration")
	}
	if reg.PaymentStatus == regmodels.StatusSuccess {
		// A double submit, or a second payment for a paid registration. The
		// second payment is left uncaptured so the gateway releases it.
		if reg.PaymentID != req.PaymentID {
			s.logger.WarnContext(ctx, "payment for already paid registration left uncaptured",
				"registration_id", reg.RegistrationID,
				"payment_id", req.PaymentID,
				"recorded_payment_id", reg.PaymentID,
			)
		}
		return &regmodels.Outcome{Registration: reg, PreviousStatus: reg.PaymentStatus}, nil
	}

	payment, err := s.settle(ctx, req, reg)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrGatewayStatus, payment.Status))

	outcome, err := s.UpdateStatus(ctx, regmodels.StatusUpdate{
		RegistrationID: reg.RegistrationID,
		Status:         statusFor(payment),
		PaymentID:      payment.ID,
		Source:         audit.SourceClient,
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		tracer.String(tracer.AttrPaymentStatus, string(outcome.Registration.PaymentStatus)),
		tracer.Bool(tracer.AttrFirstSuccess, outcome.FirstSuccess()),
	)
	return outcome, nil
}

// checkOrderOwner rejects an order the store links to a different
// registration.
func (s *Service) checkOrderOwner(ctx context.Context, reg *regmodels.Registration, orderID string) error {
	if reg.OrderID == orderID {
		return nil
	}
	owner, err := s.registrations.FindByOrderID(ctx, orderID)
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return nil
	case err != nil:
		return err
	case owner.RegistrationID != reg.RegistrationID:
		return s.rejectPayment(ctx, reg, "order belongs to another registration",
			"order_id", orderID,
			"order_registration_id", owner.RegistrationID,
		)
	}
	return nil
}

// checkPaymentOwner ties a fetched payment to the registration being paid.
// A payment whose notes name no registration must come from the order
// recorded on it.
func (s *Service) checkPaymentOwner(ctx context.Context, reg *regmodels.Registration, orderID string, p *gateway.Payment) error {
	if p.OrderID != "" && p.OrderID != orderID {
		return s.rejectPayment(ctx, reg, "payment does not belong to the order",
			"order_id", orderID,
			"payment_order_id", p.OrderID,
		)
	}
	noted := p.Notes[gateway.NoteRegistrationID]
	if noted != "" && noted != reg.RegistrationID {
		return s.rejectPayment(ctx, reg, "payment belongs to another registration",
			"payment_id", p.ID,
			"payment_registration_id", noted,
		)
	}
	if noted == "" && reg.OrderID != "" && reg.OrderID != orderID {
		return s.rejectPayment(ctx, reg, "order is not linked to the registration",
			"order_id", orderID,
			"recorded_order_id", reg.OrderID,
		)
	}
	if p.Amount != gateway.ToSubunits(reg.Amount) {
		return s.rejectPayment(ctx, reg, "payment amount does not match the registration",
			"payment_id", p.ID,
			"amount_paise", fmt.Sprint(p.Amount),
		)
	}
	return nil
}

func (s *Service) rejectPayment(ctx context.Context, reg *regmodels.Registration, msg string, details ...string) error {
	args := []any{"registration_id", reg.RegistrationID}
	for i := 0; i+1 < len(details); i += 2 {
		args = append(args, details[i], details[i+1])
	}
	s.logger.WarnContext(ctx, msg, args...)
	s.emit(ctx, audit.ActionPaymentRejected, reg.RegistrationID, audit.SourceClient, append(details, "reason", msg)...)
	return dErrors.New(dErrors.CodeValidation, msg)
}

// settle fetches the payment, checks it belongs to the registration and
// captures it when it is only authorized. A rejected capture usually means
// the payment moved on its own (auto-capture or a concurrent capture), so the
// payment is fetched again.
func (s *Service) settle(ctx context.Context, req *models.VerifyRequest, reg *regmodels.Registration) (*gateway.Payment, error) {
	paymentID, currency := req.PaymentID, req.Currency
	payment, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, gatewayError(err, "failed to fetch payment")
	}
	if err := s.checkPaymentOwner(ctx, reg, req.OrderID, payment); err != nil {
		return nil, err
	}
	if payment.Status != gateway.PaymentAuthorized {
		return payment, nil
	}

	if currency == "" {
		currency = payment.Currency
	}
	if currency == "" {
		currency = defaultCurrency
	}
	captured, err := s.gateway.CapturePayment(ctx, paymentID, gateway.ToSubunits(reg.Amount), currency)
	if err == nil {
		return captured, nil
	}
	if !gateway.IsCategory(err, gateway.ErrorRejected) {
		return nil, gatewayError(err, "failed to capture payment")
	}

	s.logger.WarnContext(ctx, "capture rejected, refetching payment",
		"registration_id", reg.RegistrationID,
		"payment_id", paymentID,
		"error", err,
	)
	payment, err = s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, gatewayError(err, "failed to fetch payment")
	}
	return payment, nil
}

func statusFor(p *gateway.Payment) regmodels.PaymentStatus {
	if p.IsCaptured() {
		return regmodels.StatusSuccess
	}
	return regmodels.StatusFailed
}

// rejectSignature records a forged or corrupted signature as a security
// event.
func (s *Service) rejectSignature(ctx context.Context, kind, registrationID string, details ...string) {
	s.metrics.IncSignatureRejection(kind)
	args := []any{"kind", kind, "registration_id", registrationID}
	for i := 0; i+1 < len(details); i += 2 {
		args = append(args, details[i], details[i+1])
	}
	s.logger.WarnContext(ctx, "payment signature rejected", args...)
	source := audit.SourceClient
	if kind == "webhook" {
		source = audit.SourceWebhook
	}
	s.emit(ctx, audit.ActionSignatureRejected, registrationID, source, details...)
}
