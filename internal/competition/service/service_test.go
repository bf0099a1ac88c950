package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"coffeereg/internal/competition/models"
	"coffeereg/internal/competition/store"
	dErrors "coffeereg/pkg/domain-errors"
	"coffeereg/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	store *store.InMemoryStore
	svc   *Service
	ctx   context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.svc = New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestSeedThenGet() {
	n, err := s.svc.Seed(s.ctx, []models.Competition{
		{Name: "National Barista Championship", Price: 1180},
		{Name: "Filter Coffee Championship", Price: 580},
	})
	s.Require().NoError(err)
	s.Equal(2, n)

	list, err := s.svc.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("Filter Coffee Championship", list[0].Name)

	got, err := s.svc.Get(s.ctx, list[0].ID)
	s.Require().NoError(err)
	s.Equal(580.0, got.Price)
}

func (s *ServiceSuite) TestReseedUpdatesPriceInPlace() {
	_, err := s.svc.Seed(s.ctx, []models.Competition{{Name: "Coffee in Good Spirits", Price: 1000}})
	s.Require().NoError(err)
	first, _ := s.svc.List(s.ctx)

	_, err = s.svc.Seed(s.ctx, []models.Competition{{Name: "Coffee in Good Spirits", Price: 1180}})
	s.Require().NoError(err)
	second, _ := s.svc.List(s.ctx)

	s.Require().Len(second, 1)
	s.Equal(first[0].ID, second[0].ID)
	s.Equal(1180.0, second[0].Price)
}

func (s *ServiceSuite) TestSeedRejectsInvalidEntryBeforeWriting() {
	_, err := s.svc.Seed(s.ctx, []models.Competition{
		{Name: "National Barista Championship", Price: 1180},
		{Name: "   ", Price: 1180},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	list, _ := s.svc.List(s.ctx)
	s.Empty(list)
}

func (s *ServiceSuite) TestGetUnknown() {
	_, err := s.svc.Get(s.ctx, "64b7f0c2a1b2c3d4e5f60718")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

type failingStore struct{ Store }

func (failingStore) FindByID(context.Context, string) (*models.Competition, error) {
	return nil, errors.New("socket closed")
}

func (s *ServiceSuite) TestGetInfrastructureError() {
	svc := New(failingStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := svc.Get(s.ctx, "x")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.False(errors.Is(err, sentinel.ErrNotFound))
}
