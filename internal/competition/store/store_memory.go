package store

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"coffeereg/internal/competition/models"
	"coffeereg/pkg/platform/sentinel"
)

// InMemoryStore keeps the catalog in memory for tests and local runs. IDs use
// the same hex ObjectID format as the Mongo store.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.Competition
	byName map[string]string
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[string]*models.Competition),
		byName: make(map[string]string),
	}
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Competition, 0, len(s.byID))
	for _, c := range s.byID {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (*models.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Upsert inserts or replaces by name and sets c.ID.
func (s *InMemoryStore) Upsert(_ context.Context, c *models.Competition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byName[c.Name]; ok {
		c.ID = id
	} else if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	cp := *c
	s.byID[c.ID] = &cp
	s.byName[c.Name] = c.ID
	return nil
}
