//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformmongo "coffeereg/internal/platform/mongodb"
	"coffeereg/internal/registration/models"
	"coffeereg/pkg/platform/sentinel"
	"coffeereg/pkg/testutil/containers"
)

type MongoStoreSuite struct {
	suite.Suite
	store *MongoStore
	ctx   context.Context
}

func TestMongoStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(MongoStoreSuite))
}

func (s *MongoStoreSuite) SetupTest() {
	h := containers.GetManager().GetMongo(s.T()).NewHandle(s.T())
	coll, err := h.Collection(platformmongo.RegistrationsCollection)
	s.Require().NoError(err)
	s.store = NewMongo(coll, nil)
	s.ctx = context.Background()
}

func (s *MongoStoreSuite) TestInsertMapsDuplicateKeys() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	s.Require().NoError(s.store.Insert(s.ctx, newReg("CFC1", "a@x.in", "9876543210", "111111111111", now)))

	err := s.store.Insert(s.ctx, newReg("CFC1", "b@x.in", "9876543211", "222222222222", now))
	s.ErrorIs(err, ErrDuplicateID)

	err = s.store.Insert(s.ctx, newReg("CFC2", "b@x.in", "9876543210", "222222222222", now))
	s.ErrorIs(err, sentinel.ErrConflict)
	s.NotErrorIs(err, ErrDuplicateID)
}

func (s *MongoStoreSuite) TestRoundTrip() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	reg := newReg("CFC1", "a@x.in", "9876543210", "111111111111", now)
	reg.PassportNumber = "Z1234567"
	reg.AttachmentRef = "gridfs:abc"
	s.Require().NoError(s.store.Insert(s.ctx, reg))

	got, err := s.store.FindByRegistrationID(s.ctx, "CFC1")
	s.Require().NoError(err)
	s.Equal(*reg, *got)

	_, err = s.store.FindByRegistrationID(s.ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MongoStoreSuite) TestConditionalStatusUpdate() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	s.Require().NoError(s.store.Insert(s.ctx, newReg("CFC1", "a@x.in", "9876543210", "111111111111", now)))

	reg, err := s.store.UpdateStatus(s.ctx, "CFC1", models.StatusSuccess, "pay_1", now.Add(time.Second))
	s.Require().NoError(err)
	s.Equal(models.StatusSuccess, reg.PaymentStatus)

	_, err = s.store.UpdateStatus(s.ctx, "CFC1", models.StatusFailed, "pay_2", now.Add(2*time.Second))
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.store.UpdateStatus(s.ctx, "missing", models.StatusFailed, "", now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	got, err := s.store.FindByRegistrationID(s.ctx, "CFC1")
	s.Require().NoError(err)
	s.Equal("pay_1", got.PaymentID)
}

func (s *MongoStoreSuite) TestConcurrentUpdatesProduceOneSuccessWrite() {
	now := time.Now().UTC().Truncate(time.Millisecond)
	s.Require().NoError(s.store.Insert(s.ctx, newReg("CFC1", "a@x.in", "9876543210", "111111111111", now)))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.UpdateStatus(s.ctx, "CFC1", models.StatusSuccess, "pay_1", time.Now()); err == nil {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, applied)
}

func (s *MongoStoreSuite) TestLookupsAndStalePending() {
	old := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	s.Require().NoError(s.store.Insert(s.ctx, newReg("CFC1", "a@x.in", "9876543210", "111111111111", old)))
	s.Require().NoError(s.store.Insert(s.ctx, newReg("CFC2", "b@x.in", "9876543211", "222222222222", old.Add(time.Minute))))
	s.Require().NoError(s.store.AttachOrder(s.ctx, "CFC1", "order_1", old))

	byOrder, err := s.store.FindByOrderID(s.ctx, "order_1")
	s.Require().NoError(err)
	s.Equal("CFC1", byOrder.RegistrationID)

	matches, err := s.store.FindByAnyKey(s.ctx, models.UniquenessKey{Email: "a@x.in", NationalID: "222222222222"})
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Equal("CFC2", matches[0].RegistrationID)

	stale, err := s.store.ListStalePending(s.ctx, time.Now(), 10)
	s.Require().NoError(err)
	s.Require().Len(stale, 1)
	s.Equal("order_1", stale[0].OrderID)
}
