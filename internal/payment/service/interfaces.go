package service

import (
	"context"
	"time"

	"coffeereg/internal/audit"
	"coffeereg/internal/payment/gateway"
	regmodels "coffeereg/internal/registration/models"
)

// Registrations is the slice of the registration service the payment flow
// drives. Errors are already domain errors.
type Registrations interface {
	FindByRegistrationID(ctx context.Context, id string) (*regmodels.Registration, error)
	FindByOrderID(ctx context.Context, orderID string) (*regmodels.Registration, error)
	UpdateStatus(ctx context.Context, upd regmodels.StatusUpdate) (*regmodels.Outcome, error)
	AttachOrder(ctx context.Context, registrationID, orderID string) error
	ListStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*regmodels.Registration, error)
}

// Gateway is the payment provider. Errors are *gateway.Error.
type Gateway interface {
	CreateOrder(ctx context.Context, req gateway.OrderRequest) (*gateway.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error)
	CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (*gateway.Payment, error)
	FetchOrderPayments(ctx context.Context, orderID string) ([]gateway.Payment, error)
	KeyID() string
}

// Notifier sends the payment confirmation.
type Notifier interface {
	Send(ctx context.Context, reg *regmodels.Registration) error
}

// Deliveries deduplicates webhook deliveries by event ID.
type Deliveries interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event)
}
