package audit

import "time"

// Event records a registration or payment state change. It stays
// transport-agnostic so sinks can fan out without knowing the caller.
type Event struct {
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Action         Action            `json:"action"`
	RegistrationID string            `json:"registrationId,omitempty"`
	Actor          string            `json:"actor,omitempty"`
	Source         string            `json:"source,omitempty"`
	RequestID      string            `json:"requestId,omitempty"`
	Details        map[string]string `json:"details,omitempty"`
}

type Action string

const (
	ActionRegistrationCreated  Action = "registration_created"
	ActionRegistrationReused   Action = "registration_reused"
	ActionRegistrationConflict Action = "registration_conflict"
	ActionOrderCreated         Action = "order_created"
	ActionPaymentSucceeded     Action = "payment_succeeded"
	ActionPaymentFailed        Action = "payment_failed"
	ActionStaleUpdateIgnored   Action = "stale_update_ignored"
	ActionSignatureRejected    Action = "signature_rejected"
	ActionPaymentRejected      Action = "payment_rejected"
	ActionNotificationSent     Action = "notification_sent"
	ActionNotificationFailed   Action = "notification_failed"
)

// Sources of a status change.
const (
	SourceClient    = "client_callback"
	SourceWebhook   = "webhook"
	SourceAdmin     = "admin"
	SourceReconcile = "reconcile"
)
