package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("razorpay", WithFailureThreshold(3))

	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.Equal(t, StateChange{}, b.RecordFailure())
	assert.True(t, b.RecordFailure().Opened)
	assert.True(t, b.IsOpen())
	assert.Equal(t, "open", b.State().String())
}

func TestBreakerSuccessResetsFailureStreak(t *testing.T) {
	b := New("razorpay", WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	assert.False(t, b.IsOpen())
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	b := New("razorpay", WithFailureThreshold(1), WithCooldown(10*time.Second), WithClock(clock.Now))

	b.RecordFailure()
	assert.False(t, b.Allow(), "open circuit rejects during cooldown")

	clock.Advance(11 * time.Second)
	assert.True(t, b.Allow(), "first caller after cooldown probes")
	assert.False(t, b.Allow(), "only one probe at a time")

	assert.True(t, b.RecordSuccess().Closed)
	assert.True(t, b.Allow())
}

func TestBreakerFailedProbeRestartsCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	b := New("razorpay", WithFailureThreshold(1), WithCooldown(10*time.Second), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(11 * time.Second)
	assert.True(t, b.Allow())
	b.RecordFailure()

	assert.False(t, b.Allow())
	clock.Advance(11 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreakerReset(t *testing.T) {
	b := New("razorpay", WithFailureThreshold(1))
	b.RecordFailure()
	b.Reset()
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}
