package service

import (
	"context"
	"time"

	"coffeereg/internal/audit"
	compmodels "coffeereg/internal/competition/models"
	"coffeereg/internal/registration/models"
)

// Store persists registrations.
// Error Contract:
//   - Find methods return sentinel.ErrNotFound when nothing matches
//   - Insert returns store.ErrDuplicateID for a taken registration ID and
//     sentinel.ErrConflict for any other unique field
//   - UpdateStatus returns sentinel.ErrInvalidState when the record is already
//     success and must not be written
type Store interface {
	Insert(ctx context.Context, reg *models.Registration) error
	FindByRegistrationID(ctx context.Context, id string) (*models.Registration, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Registration, error)
	FindByAnyKey(ctx context.Context, key models.UniquenessKey) ([]*models.Registration, error)
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, paymentID string, at time.Time) (*models.Registration, error)
	AttachOrder(ctx context.Context, id, orderID string, at time.Time) error
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*models.Registration, error)
}

// Catalog resolves the competition a submission refers to. Unknown IDs are
// reported as a not_found domain error.
type Catalog interface {
	Get(ctx context.Context, id string) (*compmodels.Competition, error)
}

// Attachments stores passport uploads and returns an opaque reference.
type Attachments interface {
	Save(ctx context.Context, registrationID string, up *models.Upload) (string, error)
	Delete(ctx context.Context, ref string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}
