package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"coffeereg/internal/competition/models"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/sentinel"
)

// Store persists the competition catalog.
// Error Contract:
// - FindByID returns sentinel.ErrNotFound for unknown or malformed IDs
type Store interface {
	List(ctx context.Context) ([]*models.Competition, error)
	FindByID(ctx context.Context, id string) (*models.Competition, error)
	Upsert(ctx context.Context, c *models.Competition) error
}

// Service exposes the read-only catalog to the registration flow and lets
// operators seed it.
type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) List(ctx context.Context) ([]*models.Competition, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list competitions")
	}
	return list, nil
}

// Get returns a not_found domain error for unknown IDs.
func (s *Service) Get(ctx context.Context, id string) (*models.Competition, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "competition not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load competition")
	}
	return c, nil
}

// Seed upserts every entry by name. Invalid entries abort before anything is
// written.
func (s *Service) Seed(ctx context.Context, entries []models.Competition) (int, error) {
	for i := range entries {
		entries[i].Normalize()
		if !entries[i].Valid() {
			return 0, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("catalog entry %d needs a name and a positive price", i+1))
		}
	}
	for i := range entries {
		if err := s.store.Upsert(ctx, &entries[i]); err != nil {
			return i, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed competition "+entries[i].Name)
		}
		s.logger.InfoContext(ctx, "competition seeded",
			"competition_id", entries[i].ID,
			"name", entries[i].Name,
			"price", entries[i].Price,
		)
	}
	return len(entries), nil
}
