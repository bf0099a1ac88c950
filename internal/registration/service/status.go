package service

import (
	"context"
	"errors"

	"coffeereg/internal/audit"
	"coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/sentinel"
)

// UpdateStatus moves a registration's payment status. It is safe to repeat:
// a second success is a no-op and any update arriving after success is
// ignored with a warning. The store write is conditional as well, so two
// racing callers cannot both observe the first success.
func (s *Service) UpdateStatus(ctx context.Context, upd models.StatusUpdate) (*models.Outcome, error) {
	if !upd.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "paymentStatus must be pending, success or failed")
	}
	if upd.RegistrationID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "registrationId is required")
	}

	current, err := s.store.FindByRegistrationID(ctx, upd.RegistrationID)
	if err != nil {
		return nil, s.translateFind(err, "failed to load registration")
	}
	if !current.PaymentStatus.CanTransitionTo(upd.Status) {
		return s.ignoreStale(ctx, current, upd), nil
	}
	if current.PaymentStatus == models.StatusSuccess {
		// Repeated success: nothing to write.
		return &models.Outcome{Registration: current, PreviousStatus: current.PaymentStatus}, nil
	}

	updated, err := s.store.UpdateStatus(ctx, upd.RegistrationID, upd.Status, upd.PaymentID, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			// Another caller recorded success between our read and write.
			latest, ferr := s.store.FindByRegistrationID(ctx, upd.RegistrationID)
			if ferr != nil {
				return nil, s.translateFind(ferr, "failed to reload registration")
			}
			if upd.Status == models.StatusSuccess {
				return &models.Outcome{Registration: latest, PreviousStatus: latest.PaymentStatus}, nil
			}
			return s.ignoreStale(ctx, latest, upd), nil
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update payment status")
		}
	}

	s.metrics.IncTransition(string(upd.Status), upd.Source)
	action := audit.ActionPaymentFailed
	if upd.Status == models.StatusSuccess {
		action = audit.ActionPaymentSucceeded
	}
	if upd.Status != models.StatusPending {
		s.emit(ctx, action, updated.RegistrationID, upd.Source,
			"payment_id", updated.PaymentID,
			"previous_status", string(current.PaymentStatus),
		)
	}
	s.logger.InfoContext(ctx, "payment status updated",
		"registration_id", updated.RegistrationID,
		"from", current.PaymentStatus,
		"to", updated.PaymentStatus,
		"source", upd.Source,
	)
	return &models.Outcome{Registration: updated, PreviousStatus: current.PaymentStatus, Applied: true}, nil
}

func (s *Service) ignoreStale(ctx context.Context, current *models.Registration, upd models.StatusUpdate) *models.Outcome {
	s.metrics.IncStaleUpdate(upd.Source)
	s.logger.WarnContext(ctx, "ignoring status update for paid registration",
		"registration_id", current.RegistrationID,
		"requested_status", upd.Status,
		"source", upd.Source,
	)
	s.emit(ctx, audit.ActionStaleUpdateIgnored, current.RegistrationID, upd.Source,
		"requested_status", string(upd.Status),
		"payment_id", upd.PaymentID,
	)
	return &models.Outcome{Registration: current, PreviousStatus: current.PaymentStatus}
}
