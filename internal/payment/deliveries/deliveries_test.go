package deliveries

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryClaim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewInMemory(time.Hour).WithClock(func() time.Time { return now })

	ok, err := s.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = s.Claim(ctx, "evt_1")
	assert.False(t, ok, "second delivery of the same event")

	ok, _ = s.Claim(ctx, "evt_2")
	assert.True(t, ok)

	now = now.Add(time.Hour)
	ok, _ = s.Claim(ctx, "evt_1")
	assert.True(t, ok, "claims expire after the TTL")
}

func TestInMemoryRelease(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(0)

	ok, _ := s.Claim(ctx, "evt_1")
	require.True(t, ok)
	require.NoError(t, s.Release(ctx, "evt_1"))

	ok, _ = s.Claim(ctx, "evt_1")
	assert.True(t, ok)
}
