package producer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(Config{Brokers: "  "}, nil)
	assert.Error(t, err)
}

func TestToRecordCopiesHeaders(t *testing.T) {
	r := toRecord(&Message{
		Topic:   "registration.audit",
		Key:     []byte("CFC1"),
		Headers: map[string]string{"event_type": "registration_created"},
	})
	assert.Equal(t, "registration.audit", r.Topic)
	assert.Len(t, r.Headers, 1)
	assert.Equal(t, "event_type", r.Headers[0].Key)
}
