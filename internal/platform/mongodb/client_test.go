package mongodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutURIIsNil(t *testing.T) {
	h := New(Config{})
	assert.Nil(t, h)

	_, err := h.Database()
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, h.Close(context.Background()))
}

func TestDatabaseIsCreatedOnce(t *testing.T) {
	// Connect does not dial, so an unreachable host still yields a client.
	h := New(Config{URI: "mongodb://127.0.0.1:1", Database: "coffee_test"})
	require.NotNil(t, h)

	first, err := h.Database()
	require.NoError(t, err)
	second, err := h.Database()
	require.NoError(t, err)

	assert.Same(t, first.Client(), second.Client())
	assert.Equal(t, "coffee_test", first.Name())
}

func TestInvalidURIErrorIsSticky(t *testing.T) {
	h := New(Config{URI: "not-a-uri", Database: "coffee_test"})

	_, err := h.Database()
	require.Error(t, err)
	_, err = h.Collection(RegistrationsCollection)
	require.Error(t, err)
}
