package service

import (
	"context"
	"errors"
	"strings"

	"coffeereg/internal/audit"
	compmodels "coffeereg/internal/competition/models"
	"coffeereg/internal/registration/models"
	"coffeereg/internal/registration/store"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/privacy"
	"coffeereg/pkg/platform/sentinel"
)

// CreateResult is the outcome of a registration submission.
type CreateResult struct {
	Registration *models.Registration
	// RetryAllowed is true when an unpaid registration for the same person
	// was returned instead of creating a new one.
	RetryAllowed bool
}

// Create applies the uniqueness policy: a paid match is a conflict, an
// unpaid match is returned for another payment attempt, and otherwise a new
// pending registration is stored.
func (s *Service) Create(ctx context.Context, sub *models.Submission) (*CreateResult, error) {
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	comp, err := s.catalog.Get(ctx, sub.CompetitionID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeValidation, "competition is not offered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load competition")
	}
	if sub.Amount != nil && !comp.AmountMatches(*sub.Amount) {
		return nil, dErrors.New(dErrors.CodeValidation, "amount does not match the competition fee")
	}
	if comp.PassportRequired && sub.PassportNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "passport number is required for "+comp.Name)
	}

	// Submissions for the same person are resolved one at a time within this
	// instance. Across instances the store's unique indexes decide.
	key := sub.Key()
	unlock := s.locks.Lock(key.Email, key.Mobile, key.NationalID)
	defer unlock()

	if res, err := s.resolveExisting(ctx, key); res != nil || err != nil {
		return res, err
	}

	if comp.PassportRequired && sub.Passport == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "passport upload is required for "+comp.Name)
	}
	return s.insertNew(ctx, sub, comp)
}

// resolveExisting returns a non-nil result or error when key already
// identifies a registration.
func (s *Service) resolveExisting(ctx context.Context, key models.UniquenessKey) (*CreateResult, error) {
	matches, err := s.store.FindByAnyKey(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing registrations")
	}
	if len(matches) == 0 {
		return nil, nil
	}

	match := pickMatch(matches)
	fields := strings.Join(key.Matches(match), ",")
	if match.PaymentStatus == models.StatusSuccess {
		s.metrics.IncRegistration("conflict")
		s.logger.InfoContext(ctx, "submission matches a paid registration",
			"registration_id", match.RegistrationID,
			"fields", fields,
			"mobile", privacy.MaskTail(match.Mobile, 4),
		)
		s.emit(ctx, audit.ActionRegistrationConflict, match.RegistrationID, audit.SourceClient,
			"fields", fields,
		)
		return nil, dErrors.New(dErrors.CodeConflict, "a paid registration already exists for these details")
	}

	s.metrics.IncRegistration("reused")
	s.emit(ctx, audit.ActionRegistrationReused, match.RegistrationID, audit.SourceClient,
		"fields", fields,
		"payment_status", string(match.PaymentStatus),
	)
	return &CreateResult{Registration: match, RetryAllowed: true}, nil
}

func (s *Service) insertNew(ctx context.Context, sub *models.Submission, comp *compmodels.Competition) (*CreateResult, error) {
	now := s.now().UTC()
	reg := &models.Registration{
		Name:            sub.Name,
		Email:           sub.Email,
		Mobile:          sub.Mobile,
		Address:         sub.Address,
		City:            sub.City,
		State:           sub.State,
		PostalCode:      sub.PostalCode,
		NationalID:      sub.NationalID,
		CompetitionID:   comp.ID,
		CompetitionName: comp.Name,
		Amount:          comp.Price,
		AcceptedTerms:   sub.AcceptedTerms,
		PassportNumber:  sub.PassportNumber,
		PaymentStatus:   models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	reg.RegistrationID = s.ids.Next()

	if sub.Passport != nil {
		if s.attachments == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "passport uploads are not accepted")
		}
		ref, err := s.attachments.Save(ctx, reg.RegistrationID, sub.Passport)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store passport upload")
		}
		reg.AttachmentRef = ref
	}

	err := s.insertWithFreshID(ctx, reg)
	if err == nil {
		s.metrics.IncRegistration("created")
		s.emit(ctx, audit.ActionRegistrationCreated, reg.RegistrationID, audit.SourceClient,
			"competition", reg.CompetitionName,
		)
		s.logger.InfoContext(ctx, "registration created",
			"registration_id", reg.RegistrationID,
			"competition_id", reg.CompetitionID,
		)
		return &CreateResult{Registration: reg}, nil
	}

	s.discardAttachment(ctx, reg)
	if errors.Is(err, sentinel.ErrConflict) && !errors.Is(err, store.ErrDuplicateID) {
		// Lost a race with a concurrent submission for the same person.
		if res, rerr := s.resolveExisting(ctx, sub.Key()); res != nil || rerr != nil {
			return res, rerr
		}
		return nil, dErrors.New(dErrors.CodeConflict, "registration already exists")
	}
	return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
}

func (s *Service) insertWithFreshID(ctx context.Context, reg *models.Registration) error {
	var err error
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if attempt > 0 {
			reg.RegistrationID = s.ids.Next()
		}
		err = s.store.Insert(ctx, reg)
		if !errors.Is(err, store.ErrDuplicateID) {
			return err
		}
		s.logger.WarnContext(ctx, "registration id collision, retrying",
			"registration_id", reg.RegistrationID,
			"attempt", attempt+1,
		)
	}
	return err
}

func (s *Service) discardAttachment(ctx context.Context, reg *models.Registration) {
	if reg.AttachmentRef == "" || s.attachments == nil {
		return
	}
	if err := s.attachments.Delete(ctx, reg.AttachmentRef); err != nil {
		s.logger.WarnContext(ctx, "failed to remove orphaned passport upload",
			"error", err,
			"attachment_ref", reg.AttachmentRef,
		)
	}
}
