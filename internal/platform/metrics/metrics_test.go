package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStoreOp(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.ObserveStoreOp("registrations", "insert", time.Now(), nil)
	m.ObserveStoreOp("registrations", "insert", time.Now(), errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreErrors.WithLabelValues("registrations", "insert")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StoreOperationLatency))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveStoreOp("competitions", "list", time.Now(), nil)
}
