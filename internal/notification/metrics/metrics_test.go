package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNotificationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	m.IncNotification(OutcomeSent)
	m.IncNotification(OutcomeSkipped)
	m.ObserveMailSend(time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues(OutcomeSent)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.MailLatency))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncNotification(OutcomeFailed)
		m.ObserveMailSend(time.Now())
	})
}
