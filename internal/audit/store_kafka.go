package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"coffeereg/internal/platform/kafka/producer"
)

// Producer is the subset of the Kafka producer the sink uses.
type Producer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// KafkaStore publishes events as JSON keyed by registration ID, so every
// event for one registration lands on the same partition in order.
type KafkaStore struct {
	producer Producer
	topic    string
}

func NewKafkaStore(p Producer, topic string) *KafkaStore {
	return &KafkaStore{producer: p, topic: topic}
}

func (s *KafkaStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.RegistrationID),
		Value: payload,
		Headers: map[string]string{
			"event_type": string(event.Action),
			"event_id":   event.ID,
		},
	})
}
