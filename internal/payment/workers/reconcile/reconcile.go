// Package reconcile runs the background pass that settles stale pending
// registrations against the gateway.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coffeereg/internal/payment/service"
)

// Reconciler is implemented by the payment service.
type Reconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*service.ReconcileReport, error)
}

// Worker periodically reconciles pending registrations.
type Worker struct {
	reconciler Reconciler
	interval   time.Duration
	olderThan  time.Duration
	batchSize  int
	logger     *slog.Logger
}

type Option func(*Worker)

// WithInterval overrides the pass interval when greater than zero.
func WithInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithOlderThan sets how long a registration must sit in pending with an
// order before the worker asks the gateway about it.
func WithOlderThan(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.olderThan = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func New(reconciler Reconciler, opts ...Option) (*Worker, error) {
	if reconciler == nil {
		return nil, errors.New("reconciler is required")
	}
	w := &Worker{
		reconciler: reconciler,
		interval:   5 * time.Minute,
		olderThan:  15 * time.Minute,
		batchSize:  50,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Start runs a pass every interval until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "payment reconciliation failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single pass.
func (w *Worker) RunOnce(ctx context.Context) (*service.ReconcileReport, error) {
	return w.reconciler.ReconcilePending(ctx, w.olderThan, w.batchSize)
}
