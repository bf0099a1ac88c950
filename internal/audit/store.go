package audit

import "context"

// Store persists audit events. Sinks are append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
}
