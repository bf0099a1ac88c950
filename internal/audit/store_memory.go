package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps events per registration for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
	all    int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.RegistrationID] = append(s.events[event.RegistrationID], event)
	s.all++
	return nil
}

func (s *InMemoryStore) ListByRegistration(_ context.Context, registrationID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[registrationID]...), nil
}

// Actions returns the recorded actions for registrationID in order.
func (s *InMemoryStore) Actions(registrationID string) []Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Action, 0, len(s.events[registrationID]))
	for _, e := range s.events[registrationID] {
		out = append(out, e.Action)
	}
	return out
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all
}
