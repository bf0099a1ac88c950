package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"coffeereg/internal/registration/models"
	"coffeereg/pkg/platform/sentinel"
)

// InMemoryStore mirrors the unique indexes of the Mongo collection so tests
// see the same conflicts production would.
type InMemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*models.Registration
	email map[string]string
	phone map[string]string
	natID map[string]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[string]*models.Registration),
		email: make(map[string]string),
		phone: make(map[string]string),
		natID: make(map[string]string),
	}
}

func (s *InMemoryStore) Insert(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[reg.RegistrationID]; ok {
		return ErrDuplicateID
	}
	if _, ok := s.email[reg.Email]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.phone[reg.Mobile]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.natID[reg.NationalID]; ok {
		return sentinel.ErrConflict
	}
	cp := *reg
	s.byID[reg.RegistrationID] = &cp
	s.email[reg.Email] = reg.RegistrationID
	s.phone[reg.Mobile] = reg.RegistrationID
	s.natID[reg.NationalID] = reg.RegistrationID
	return nil
}

func (s *InMemoryStore) FindByRegistrationID(_ context.Context, id string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (s *InMemoryStore) FindByOrderID(_ context.Context, orderID string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if orderID == "" {
		return nil, sentinel.ErrNotFound
	}
	for _, reg := range s.byID {
		if reg.OrderID == orderID {
			cp := *reg
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// FindByAnyKey returns every registration matching at least one non-empty
// field of key, newest first.
func (s *InMemoryStore) FindByAnyKey(_ context.Context, key models.UniquenessKey) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{}, 3)
	if id, ok := s.email[key.Email]; ok && key.Email != "" {
		ids[id] = struct{}{}
	}
	if id, ok := s.phone[key.Mobile]; ok && key.Mobile != "" {
		ids[id] = struct{}{}
	}
	if id, ok := s.natID[key.NationalID]; ok && key.NationalID != "" {
		ids[id] = struct{}{}
	}
	out := make([]*models.Registration, 0, len(ids))
	for id := range ids {
		cp := *s.byID[id]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// UpdateStatus writes status and paymentID unless the record is already
// success. An empty paymentID keeps the stored one.
func (s *InMemoryStore) UpdateStatus(_ context.Context, id string, status models.PaymentStatus, paymentID string, at time.Time) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if reg.PaymentStatus == models.StatusSuccess {
		return nil, sentinel.ErrInvalidState
	}
	reg.PaymentStatus = status
	if paymentID != "" {
		reg.PaymentID = paymentID
	}
	reg.UpdatedAt = at
	cp := *reg
	return &cp, nil
}

func (s *InMemoryStore) AttachOrder(_ context.Context, id, orderID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	reg.OrderID = orderID
	reg.UpdatedAt = at
	return nil
}

// ListStalePending returns pending registrations with an order that have not
// changed since before cutoff, oldest first.
func (s *InMemoryStore) ListStalePending(_ context.Context, cutoff time.Time, limit int) ([]*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Registration
	for _, reg := range s.byID {
		if reg.PaymentStatus == models.StatusPending && reg.OrderID != "" && reg.UpdatedAt.Before(cutoff) {
			cp := *reg
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
