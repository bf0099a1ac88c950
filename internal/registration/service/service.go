package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coffeereg/internal/registration/metrics"
	"coffeereg/internal/registration/models"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/sentinel"
	keysync "coffeereg/pkg/platform/sync"
)

const (
	defaultIDPrefix = "CFC2025"
	// maxIDAttempts bounds retries when a generated registration ID collides
	// with one issued by another instance in the same millisecond.
	maxIDAttempts = 3
)

// Service owns the registration lifecycle: creation with the uniqueness
// policy, and payment status transitions that never downgrade a success.
type Service struct {
	store          Store
	catalog        Catalog
	attachments    Attachments
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	ids            *models.IDGenerator
	locks          *keysync.ShardedMutex
	now            func() time.Time
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

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = p
	}
}

// WithAttachments enables passport uploads. Without it, competitions that
// require a passport reject new submissions.
func WithAttachments(a Attachments) Option {
	return func(s *Service) {
		s.attachments = a
	}
}

func WithIDGenerator(g *models.IDGenerator) Option {
	return func(s *Service) {
		if g != nil {
			s.ids = g
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(store Store, catalog Catalog, opts ...Option) *Service {
	svc := &Service{
		store:   store,
		catalog: catalog,
		ids:     models.NewIDGenerator(defaultIDPrefix),
		locks:   keysync.NewShardedMutex(0),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// FindByRegistrationID returns a not_found domain error for unknown IDs.
func (s *Service) FindByRegistrationID(ctx context.Context, id string) (*models.Registration, error) {
	reg, err := s.store.FindByRegistrationID(ctx, id)
	if err != nil {
		return nil, s.translateFind(err, "failed to load registration")
	}
	return reg, nil
}

// FindByOrderID resolves the registration an order was created for.
func (s *Service) FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error) {
	reg, err := s.store.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, s.translateFind(err, "failed to load registration by order")
	}
	return reg, nil
}

// FindByUniquenessKey returns the newest registration matching any field of
// key, or nil when there is none. An empty key is a validation error.
func (s *Service) FindByUniquenessKey(ctx context.Context, key models.UniquenessKey) (*models.Registration, error) {
	key.Normalize()
	if key.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "email, mobile or aadhaar is required")
	}
	matches, err := s.store.FindByAnyKey(ctx, key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up registration")
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return pickMatch(matches), nil
}

// AttachOrder records the gateway order created for a registration so
// webhooks can find it later.
func (s *Service) AttachOrder(ctx context.Context, registrationID, orderID string) error {
	if err := s.store.AttachOrder(ctx, registrationID, orderID, s.now()); err != nil {
		return s.translateFind(err, "failed to record order")
	}
	return nil
}

// ListStalePending returns pending registrations with an order that have not
// moved for at least olderThan.
func (s *Service) ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*models.Registration, error) {
	list, err := s.store.ListStalePending(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending registrations")
	}
	return list, nil
}

func (s *Service) translateFind(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "registration not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

// pickMatch prefers a paid record, then the newest. matches is newest first.
func pickMatch(matches []*models.Registration) *models.Registration {
	for _, m := range matches {
		if m.PaymentStatus == models.StatusSuccess {
			return m
		}
	}
	return matches[0]
}
