package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeereg/internal/competition/models"
	"coffeereg/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()

	c := &models.Competition{Name: "National Brewer's Cup", Price: 1180}
	require.NoError(t, s.Upsert(ctx, c))
	require.Len(t, c.ID, 24)

	got, err := s.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, *c, *got)

	got.Price = 1
	again, _ := s.FindByID(ctx, c.ID)
	assert.Equal(t, 1180.0, again.Price, "returned values are copies")

	_, err = s.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
