package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"coffeereg/pkg/requestcontext"
)

// Publisher stamps and forwards audit events to a Store, optionally through
// an async buffer so a slow sink never blocks the payment path.
type Publisher struct {
	store  Store
	events chan Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
	once   sync.Once
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer queues events in a buffer of size and persists them from a
// background goroutine. A full buffer drops the event with a warning.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := p.store.Append(ctx, event); err != nil {
			p.logFailure(event, err)
		}
		cancel()
	}
}

// Close drains the async buffer. Emit must not be called afterwards.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.async {
			close(p.events)
			p.wg.Wait()
		}
	})
}

// Emit fills ID, timestamp and request ID when absent. Sink failures are
// logged, never returned: auditing must not change a payment outcome.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if p.async {
		select {
		case p.events <- event:
		default:
			if p.logger != nil {
				p.logger.WarnContext(ctx, "audit buffer full, event dropped",
					"action", event.Action,
					"registration_id", event.RegistrationID,
				)
			}
		}
		return
	}
	if err := p.store.Append(ctx, event); err != nil {
		p.logFailure(event, err)
	}
}

func (p *Publisher) logFailure(event Event, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("failed to persist audit event",
		"error", err,
		"action", event.Action,
		"registration_id", event.RegistrationID,
	)
}
