package service

import (
	"context"

	"coffeereg/internal/audit"
)

// emit publishes an audit event. details are key/value pairs; empty values
// are dropped.
func (s *Service) emit(ctx context.Context, action audit.Action, registrationID, source string, details ...string) {
	if s.auditPublisher == nil {
		return
	}
	var d map[string]string
	for i := 0; i+1 < len(details); i += 2 {
		if details[i+1] == "" {
			continue
		}
		if d == nil {
			d = make(map[string]string, len(details)/2)
		}
		d[details[i]] = details[i+1]
	}
	s.auditPublisher.Emit(ctx, audit.Event{
		Action:         action,
		RegistrationID: registrationID,
		Source:         source,
		Details:        d,
	})
}
