package redis

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeereg/internal/platform/config"
)

func TestNewWithoutURLIsDisabled(t *testing.T) {
	c, err := New(config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New(config.RedisConfig{URL: "::not a url"}, WithRegisterer(prometheus.NewRegistry()))
	assert.Error(t, err)
}

func TestRecordStatsAdvancesCountersByDelta(t *testing.T) {
	c := &Client{metrics: newPoolMetrics(prometheus.NewRegistry())}

	c.recordStats(&redis.PoolStats{Hits: 10, Misses: 2, TotalConns: 4, IdleConns: 3})
	c.recordStats(&redis.PoolStats{Hits: 15, Misses: 2, Timeouts: 1, TotalConns: 5, IdleConns: 1})

	assert.Equal(t, 15.0, testutil.ToFloat64(c.metrics.hits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.misses))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.timeouts))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.metrics.totalConns))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.idleConns))
}
