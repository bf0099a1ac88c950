package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "webhook:delivery:"

// RedisStore shares claims between instances with SET NX and a TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Claim(ctx context.Context, eventID string) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+eventID, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim webhook delivery: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Release(ctx context.Context, eventID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+eventID).Err(); err != nil {
		return fmt.Errorf("release webhook delivery: %w", err)
	}
	return nil
}
