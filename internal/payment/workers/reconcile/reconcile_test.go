package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeereg/internal/payment/service"
)

type fakeReconciler struct {
	mu        sync.Mutex
	calls     int
	olderThan time.Duration
	limit     int
	err       error
}

func (f *fakeReconciler) ReconcilePending(_ context.Context, olderThan time.Duration, limit int) (*service.ReconcileReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.olderThan = olderThan
	f.limit = limit
	return &service.ReconcileReport{Checked: 1}, f.err
}

func (f *fakeReconciler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewRequiresReconciler(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestRunOncePassesSettings(t *testing.T) {
	f := &fakeReconciler{}
	w, err := New(f, WithOlderThan(20*time.Minute), WithBatchSize(7))
	require.NoError(t, err)

	report, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 20*time.Minute, f.olderThan)
	assert.Equal(t, 7, f.limit)
}

func TestStartRunsUntilCancelled(t *testing.T) {
	f := &fakeReconciler{err: errors.New("gateway down")}
	w, err := New(f, WithInterval(5*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool { return f.count() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
