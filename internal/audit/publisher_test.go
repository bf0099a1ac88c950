package audit

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffeereg/internal/platform/kafka/producer"
	"coffeereg/pkg/requestcontext"
)

func TestEmitStampsEvent(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store)
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")

	p.Emit(ctx, Event{Action: ActionRegistrationCreated, RegistrationID: "CFC20251"})

	events, err := store.ListByRegistration(ctx, "CFC20251")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
	assert.Equal(t, "req-42", events[0].RequestID)
}

func TestAsyncPublisherDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	p := NewPublisher(store, WithAsyncBuffer(100))

	for range 20 {
		p.Emit(context.Background(), Event{Action: ActionPaymentSucceeded, RegistrationID: "CFC20252"})
	}
	p.Close()
	p.Close()

	assert.Equal(t, 20, store.Len())
}

type failingStore struct{}

func (failingStore) Append(context.Context, Event) error { return errors.New("broker down") }

func TestEmitSwallowsSinkErrors(t *testing.T) {
	p := NewPublisher(failingStore{})
	assert.NotPanics(t, func() {
		p.Emit(context.Background(), Event{Action: ActionPaymentFailed})
	})
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	p.Emit(context.Background(), Event{Action: ActionOrderCreated})
}

type capturingProducer struct {
	mu   sync.Mutex
	msgs []*producer.Message
}

func (c *capturingProducer) Produce(_ context.Context, msg *producer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestKafkaStoreKeysByRegistration(t *testing.T) {
	prod := &capturingProducer{}
	s := NewKafkaStore(prod, "registration.audit")

	require.NoError(t, s.Append(context.Background(), Event{
		ID:             "evt-1",
		Action:         ActionPaymentSucceeded,
		RegistrationID: "CFC20253",
		Details:        map[string]string{"payment_id": "pay_1"},
	}))

	require.Len(t, prod.msgs, 1)
	msg := prod.msgs[0]
	assert.Equal(t, "registration.audit", msg.Topic)
	assert.Equal(t, "CFC20253", string(msg.Key))
	assert.Equal(t, "payment_succeeded", msg.Headers["event_type"])

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "pay_1", decoded.Details["payment_id"])
}
