package tracer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "coffeereg/pkg/domain-errors"
)

func TestOnlyServerFaultsMarkSpansFailed(t *testing.T) {
	assert.True(t, isFault(dErrors.CodeInternal))
	assert.True(t, isFault(dErrors.CodeGateway))
	assert.False(t, isFault(dErrors.CodeInvalidSignature))
	assert.False(t, isFault(dErrors.CodeValidation))
	assert.False(t, isFault(dErrors.CodeNotFound))
}
