// Package deliveries remembers which webhook deliveries were already
// processed. Razorpay retries a delivery until it sees a 2xx and marks each
// attempt with the same X-Razorpay-Event-Id.
package deliveries

import (
	"context"
	"sync"
	"time"
)

const DefaultTTL = 72 * time.Hour

// InMemoryStore keeps claims in process memory. Expired claims are dropped
// lazily on access.
type InMemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	claims map[string]time.Time
	now    func() time.Time
}

func NewInMemory(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryStore{ttl: ttl, claims: make(map[string]time.Time), now: time.Now}
}

// WithClock overrides the time source (tests).
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

// Claim returns true when eventID has not been claimed within the TTL.
func (s *InMemoryStore) Claim(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if exp, ok := s.claims[eventID]; ok && now.Before(exp) {
		return false, nil
	}
	s.claims[eventID] = now.Add(s.ttl)
	if len(s.claims)%256 == 0 {
		s.sweep(now)
	}
	return true, nil
}

// Release forgets a claim so a failed delivery can be processed on retry.
func (s *InMemoryStore) Release(_ context.Context, eventID string) error {
	s.mu.Lock()
	delete(s.claims, eventID)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryStore) sweep(now time.Time) {
	for id, exp := range s.claims {
		if !now.Before(exp) {
			delete(s.claims, id)
		}
	}
}
