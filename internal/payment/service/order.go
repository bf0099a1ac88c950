package service

import (
	"context"
	"fmt"
	"time"

	"coffeereg/internal/audit"
	"coffeereg/internal/payment/gateway"
	"coffeereg/internal/payment/models"
	"coffeereg/internal/platform/tracer"
	regmodels "coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
)

// CreateOrder opens a gateway order. With a registration ID the amount must
// equal the registration's fee and the order is linked to it, so webhooks
// and reconciliation can find the registration later. A gateway failure
// leaves every registration untouched.
func (s *Service) CreateOrder(ctx context.Context, req *models.OrderRequest) (_ *models.OrderView, err error) {
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanCreateOrder,
		tracer.String(tracer.AttrRegistrationID, req.RegistrationID),
		tracer.Float64("payment.amount", req.Amount),
	)
	defer func() { span.End(err) }()

	var reg *regmodels.Registration
	if req.RegistrationID != "" {
		reg, err = s.registrations.FindByRegistrationID(ctx, req.RegistrationID)
		if err != nil {
			return nil, err
		}
		if reg.PaymentStatus == regmodels.StatusSuccess {
			return nil, dErrors.New(dErrors.CodeConflict, "registration is already paid")
		}
		if gateway.ToSubunits(req.Amount) != gateway.ToSubunits(reg.Amount) {
			return nil, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("amount must be %s for this registration", gateway.FormatAmount(reg.Amount)))
		}
	}

	order, err := s.gateway.CreateOrder(ctx, orderRequest(req, reg))
	if err != nil {
		s.logger.ErrorContext(ctx, "order creation failed",
			"registration_id", req.RegistrationID,
			"error", err,
		)
		return nil, gatewayError(err, "failed to create order")
	}
	span.SetAttributes(tracer.String(tracer.AttrOrderID, order.ID))

	if reg != nil {
		if err := s.registrations.AttachOrder(ctx, reg.RegistrationID, order.ID); err != nil {
			return nil, err
		}
		s.emit(ctx, audit.ActionOrderCreated, reg.RegistrationID, audit.SourceClient,
			"order_id", order.ID,
			"amount", gateway.FormatAmount(req.Amount),
		)
	}
	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"registration_id", req.RegistrationID,
		"amount_paise", order.Amount,
	)

	return &models.OrderView{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
		KeyID:    s.gateway.KeyID(),
	}, nil
}

func orderRequest(req *models.OrderRequest, reg *regmodels.Registration) gateway.OrderRequest {
	out := gateway.OrderRequest{
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	if reg == nil {
		out.Receipt = fmt.Sprintf("rcpt_%d", time.Now().UnixMilli())
		return out
	}
	out.Receipt = reg.RegistrationID
	out.Notes = gateway.Notes{
		gateway.NoteRegistrationID: reg.RegistrationID,
		"competition":              reg.CompetitionName,
	}
	return out
}
