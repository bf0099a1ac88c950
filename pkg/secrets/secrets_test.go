package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "coffeereg/pkg/domain-errors"
)

func TestHashAndMatch(t *testing.T) {
	hash, err := Hash("barista-ops")
	require.NoError(t, err)

	assert.True(t, Matches("barista-ops", hash))
	assert.False(t, Matches("espresso", hash))
	assert.False(t, Matches("", hash))
	assert.False(t, Matches("barista-ops", "barista-ops"))
}

func TestHashRejectsBlankAndOverlongTokens(t *testing.T) {
	_, err := Hash("  ")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("x", 73))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestGenerateIsPrefixedAndRandom(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, TokenPrefix))
	assert.Len(t, a, len(TokenPrefix)+32)
}

func TestValidateHash(t *testing.T) {
	hash, err := Hash("barista-ops")
	require.NoError(t, err)

	assert.NoError(t, ValidateHash(hash))
	assert.Error(t, ValidateHash("creg_plaintext-token"))
}
