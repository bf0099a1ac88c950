package service

import (
	"context"
	"time"

	"coffeereg/internal/audit"
	"coffeereg/internal/payment/gateway"
	"coffeereg/internal/payment/models"
	"coffeereg/internal/platform/tracer"
	regmodels "coffeereg/internal/registration/models"
)

// Reconcile results, also used as metric labels.
const (
	ReconcileSucceeded = "succeeded"
	ReconcileFailed    = "failed"
	ReconcileUnchanged = "unchanged"
	ReconcileError     = "error"
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Checked   int `json:"checked"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Unchanged int `json:"unchanged"`
	Errors    int `json:"errors"`
}

// ReconcilePending settles pending registrations whose order is older than
// olderThan by asking the gateway what happened to the order's payments. It
// covers sessions where the browser never called back and the webhook never
// arrived. Per-registration failures are counted and do not stop the pass.
func (s *Service) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (_ *ReconcileReport, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanReconcile, tracer.Duration("reconcile.older_than", olderThan))
	defer func() { span.End(err) }()

	pending, err := s.registrations.ListStalePending(ctx, olderThan, limit)
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{}
	for _, reg := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Checked++
		result := s.reconcileOne(ctx, reg)
		s.metrics.IncReconcile(result)
		switch result {
		case ReconcileSucceeded:
			report.Succeeded++
		case ReconcileFailed:
			report.Failed++
		case ReconcileUnchanged:
			report.Unchanged++
		default:
			report.Errors++
		}
	}
	if report.Checked > 0 {
		s.logger.InfoContext(ctx, "reconciliation pass finished",
			"checked", report.Checked,
			"succeeded", report.Succeeded,
			"failed", report.Failed,
			"unchanged", report.Unchanged,
			"errors", report.Errors,
		)
	}
	return report, nil
}

func (s *Service) reconcileOne(ctx context.Context, reg *regmodels.Registration) string {
	payments, err := s.gateway.FetchOrderPayments(ctx, reg.OrderID)
	if err != nil {
		s.logger.WarnContext(ctx, "reconcile: order lookup failed",
			"registration_id", reg.RegistrationID,
			"order_id", reg.OrderID,
			"error", err,
		)
		return ReconcileError
	}

	payment, status, ok := s.decide(ctx, reg, payments)
	if !ok {
		return ReconcileUnchanged
	}
	outcome, err := s.UpdateStatus(ctx, regmodels.StatusUpdate{
		RegistrationID: reg.RegistrationID,
		Status:         status,
		PaymentID:      payment.ID,
		Source:         audit.SourceReconcile,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "reconcile: status update failed",
			"registration_id", reg.RegistrationID,
			"error", err,
		)
		return ReconcileError
	}
	if !outcome.Applied {
		return ReconcileUnchanged
	}
	if status == regmodels.StatusSuccess {
		return ReconcileSucceeded
	}
	return ReconcileFailed
}

// decide picks the payment that determines the registration's state. A
// captured payment wins; an authorized one is captured first. The order is
// failed only when it has payments and all of them failed. Anything else,
// including an order with no payments yet, leaves the registration pending.
func (s *Service) decide(ctx context.Context, reg *regmodels.Registration, payments []gateway.Payment) (*gateway.Payment, regmodels.PaymentStatus, bool) {
	for i := range payments {
		if payments[i].IsCaptured() {
			return &payments[i], regmodels.StatusSuccess, true
		}
	}
	for i := range payments {
		if payments[i].Status != gateway.PaymentAuthorized {
			continue
		}
		settled, err := s.settle(ctx, &models.VerifyRequest{
			PaymentID: payments[i].ID,
			OrderID:   reg.OrderID,
			Currency:  payments[i].Currency,
		}, reg)
		if err != nil {
			s.logger.WarnContext(ctx, "reconcile: capture failed",
				"registration_id", reg.RegistrationID,
				"payment_id", payments[i].ID,
				"error", err,
			)
			return nil, "", false
		}
		if settled.IsCaptured() {
			return settled, regmodels.StatusSuccess, true
		}
	}
	if len(payments) == 0 {
		return nil, "", false
	}
	for i := range payments {
		if payments[i].Status != gateway.PaymentFailed {
			return nil, "", false
		}
	}
	return &payments[len(payments)-1], regmodels.StatusFailed, true
}
