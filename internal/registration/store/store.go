// Package store persists registrations.
//
// Error contract shared by every implementation:
//   - lookups return sentinel.ErrNotFound when nothing matches
//   - Insert returns ErrDuplicateID when the registration ID is taken and
//     sentinel.ErrConflict when another unique field (email, mobile,
//     national ID) is taken
//   - UpdateStatus returns sentinel.ErrInvalidState when the stored record is
//     already success, leaving it untouched
package store

import (
	"fmt"

	"coffeereg/pkg/platform/sentinel"
)

// ErrDuplicateID signals a registration ID collision. Callers retry with a
// fresh ID.
var ErrDuplicateID = fmt.Errorf("%w: registration id already exists", sentinel.ErrConflict)
