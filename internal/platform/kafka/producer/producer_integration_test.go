//go:build integration

package producer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"coffeereg/internal/platform/kafka/producer"
	"coffeereg/pkg/testutil/containers"
)

type ProducerIntegrationSuite struct {
	suite.Suite
	kafka    *containers.KafkaContainer
	producer *producer.Producer
}

func TestProducerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerIntegrationSuite))
}

func (s *ProducerIntegrationSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())

	prod, err := producer.New(producer.Config{
		Brokers:         s.kafka.Brokers,
		Retries:         3,
		DeliveryTimeout: 10 * time.Second,
	}, nil)
	s.Require().NoError(err)
	s.producer = prod
}

func (s *ProducerIntegrationSuite) TearDownSuite() {
	if s.producer != nil {
		_ = s.producer.Close(5 * time.Second)
	}
}

// Produce returns only after the broker acknowledged the record, so a consumer
// started afterwards must see it with its headers intact.
func (s *ProducerIntegrationSuite) TestProduceDeliversRecordWithHeaders() {
	ctx := context.Background()
	topic := "registration.audit.it"
	s.Require().NoError(s.kafka.CreateTopic(ctx, topic))

	err := s.producer.Produce(ctx, &producer.Message{
		Topic:   topic,
		Key:     []byte("CFC20251700000000000"),
		Value:   []byte(`{"action":"payment_succeeded"}`),
		Headers: map[string]string{"event_type": "payment_succeeded"},
	})
	s.Require().NoError(err)

	record, err := s.kafka.ReadRecord(ctx, topic, "CFC20251700000000000", 10*time.Second)
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.JSONEq(`{"action":"payment_succeeded"}`, string(record.Value))
	s.Require().Len(record.Headers, 1)
	s.Equal("payment_succeeded", string(record.Headers[0].Value))
}

func (s *ProducerIntegrationSuite) TestHealth() {
	s.NoError(s.producer.Health(context.Background()))
}

func (s *ProducerIntegrationSuite) TestClosedProducerRejects() {
	p, err := producer.New(producer.Config{Brokers: s.kafka.Brokers}, nil)
	s.Require().NoError(err)
	s.Require().NoError(p.Close(time.Second))

	s.ErrorIs(p.Produce(context.Background(), &producer.Message{Topic: "x"}), producer.ErrClosed)
	s.ErrorIs(p.ProduceAsync(&producer.Message{Topic: "x"}), producer.ErrClosed)
}
