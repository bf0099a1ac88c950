//go:build integration

package containers

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisContainer wraps a plain Redis instance started from the generic
// container API.
type RedisContainer struct {
	Container testcontainers.Container
	Addr      string
	dbSeq     atomic.Int32
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redis endpoint: %v", err)
	}
	return &RedisContainer{Container: container, Addr: endpoint}
}

// NewClient returns a client on its own logical database so tests in one
// binary do not share keys.
func (r *RedisContainer) NewClient(t *testing.T) *redis.Client {
	t.Helper()
	db := int(r.dbSeq.Add(1) % 16)
	client := redis.NewClient(&redis.Options{Addr: r.Addr, DB: db})
	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("flush redis db %d: %v", db, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func (r *RedisContainer) String() string {
	return fmt.Sprintf("redis://%s", r.Addr)
}
