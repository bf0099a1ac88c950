// Package mongodb owns the process-wide document store handle.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	RegistrationsCollection = "registrations"
	CompetitionsCollection  = "competitions"
	PassportBucket          = "passports"
)

// Config holds connection settings.
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// ErrNotConfigured is returned when no URI was supplied.
var ErrNotConfigured = errors.New("mongodb not configured")

// Handle is a lazily initialised client shared by every store in the
// process. The first caller creates the client; later callers reuse it.
type Handle struct {
	cfg Config

	once   sync.Once
	client *mongo.Client
	err    error
}

// New returns a Handle without dialling. Returns nil when the URI is empty so
// callers can fall back to in-memory stores.
func New(cfg Config) *Handle {
	if cfg.URI == "" {
		return nil
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 50
	}
	return &Handle{cfg: cfg}
}

// Database returns the configured database, creating the client on first use.
func (h *Handle) Database() (*mongo.Database, error) {
	if h == nil {
		return nil, ErrNotConfigured
	}
	h.once.Do(func() {
		opts := options.Client().
			ApplyURI(h.cfg.URI).
			SetConnectTimeout(h.cfg.ConnectTimeout).
			SetServerSelectionTimeout(h.cfg.ConnectTimeout).
			SetMaxPoolSize(h.cfg.MaxPoolSize)
		// Connect does not dial; the driver connects on first operation.
		h.client, h.err = mongo.Connect(context.Background(), opts)
		if h.err != nil {
			h.err = fmt.Errorf("create mongo client: %w", h.err)
		}
	})
	if h.err != nil {
		return nil, h.err
	}
	return h.client.Database(h.cfg.Database), nil
}

// Collection is shorthand for Database().Collection(name).
func (h *Handle) Collection(name string) (*mongo.Collection, error) {
	db, err := h.Database()
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Health pings the primary.
func (h *Handle) Health(ctx context.Context) error {
	if _, err := h.Database(); err != nil {
		return err
	}
	return h.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client if it was ever created.
func (h *Handle) Close(ctx context.Context) error {
	if h == nil || h.client == nil {
		return nil
	}
	return h.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique indexes that back registration
// uniqueness. Safe to run on every start.
func (h *Handle) EnsureIndexes(ctx context.Context) error {
	coll, err := h.Collection(RegistrationsCollection)
	if err != nil {
		return err
	}
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetName(field + "_unique"),
		}
	}
	models := []mongo.IndexModel{
		unique("registrationId"),
		unique("aadhaarNumber"),
		unique("email"),
		unique("mobile"),
		{
			Keys:    bson.D{{Key: "orderId", Value: 1}},
			Options: options.Index().SetName("orderId_lookup").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "paymentStatus", Value: 1}, {Key: "updatedAt", Value: 1}},
			Options: options.Index().SetName("status_updated"),
		},
	}
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create registration indexes: %w", err)
	}

	comps, err := h.Collection(CompetitionsCollection)
	if err != nil {
		return err
	}
	_, err = comps.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("name_unique"),
	})
	if err != nil {
		return fmt.Errorf("create competition indexes: %w", err)
	}
	return nil
}
