//go:build integration

package containers

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	platformmongo "coffeereg/internal/platform/mongodb"
)

// MongoContainer wraps a testcontainers MongoDB instance.
type MongoContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
	dbSeq     atomic.Int64
}

func NewMongoContainer(t *testing.T) *MongoContainer {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get mongo connection string: %v", err)
	}

	// No t.Cleanup: the container is shared through Manager and Ryuk removes
	// it when the test process exits.

	return &MongoContainer{Container: container, URI: uri}
}

// NewHandle returns a handle on a fresh database with indexes applied, so
// suites do not see each other's documents.
func (m *MongoContainer) NewHandle(t *testing.T) *platformmongo.Handle {
	t.Helper()
	h := platformmongo.New(platformmongo.Config{
		URI:      m.URI,
		Database: fmt.Sprintf("coffee_it_%d_%d", time.Now().UnixNano(), m.dbSeq.Add(1)),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := h.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if db, err := h.Database(); err == nil {
			_ = db.Drop(ctx)
		}
		_ = h.Close(ctx)
	})
	return h
}
