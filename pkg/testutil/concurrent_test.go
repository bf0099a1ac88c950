package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/sentinel"
)

func TestRunConcurrentSortsOutcomes(t *testing.T) {
	res := RunConcurrent(8, func(idx int) error {
		switch idx % 4 {
		case 0:
			return nil
		case 1:
			return dErrors.New(dErrors.CodeConflict, "a paid registration already exists")
		case 2:
			return fmt.Errorf("lookup: %w", sentinel.ErrNotFound)
		default:
			return fmt.Errorf("boom")
		}
	})

	assert.Equal(t, int32(2), res.Successes)
	assert.Equal(t, int32(2), res.Conflicts)
	assert.Equal(t, int32(2), res.NotFounds)
	assert.Equal(t, int32(2), res.Errors)
	assert.Equal(t, int32(8), res.Total())
}

func TestFixturesDoNotCollide(t *testing.T) {
	a, b := Submission("comp-1", 1), Submission("comp-1", 2)
	assert.NotEqual(t, a.Email, b.Email)
	assert.NotEqual(t, a.Mobile, b.Mobile)
	assert.NotEqual(t, a.NationalID, b.NationalID)
	assert.NoError(t, a.Validate())

	reg := Registration("CFC20251", "comp-1", 1, "success")
	assert.Equal(t, a.Email, reg.Email)
}
