package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coffeereg/internal/competition/models"
	"coffeereg/internal/platform/metrics"
	"coffeereg/pkg/platform/sentinel"
)

const storeName = "competitions"

type document struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Name             string             `bson:"name"`
	Price            float64            `bson:"price"`
	PassportRequired bool               `bson:"passportRequired"`
}

func (d *document) toModel() *models.Competition {
	return &models.Competition{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Price:            d.Price,
		PassportRequired: d.PassportRequired,
	}
}

// MongoStore reads the catalog from the competitions collection.
type MongoStore struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

func NewMongo(coll *mongo.Collection, m *metrics.Metrics) *MongoStore {
	return &MongoStore{coll: coll, metrics: m}
}

func (s *MongoStore) List(ctx context.Context) (out []*models.Competition, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(storeName, "list", start, err) }(time.Now())

	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	var docs []document
	if err = cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode competitions: %w", err)
	}
	out = make([]*models.Competition, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (_ *models.Competition, err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(storeName, "find_by_id", start, err) }(time.Now())

	oid, perr := primitive.ObjectIDFromHex(id)
	if perr != nil {
		return nil, sentinel.ErrNotFound
	}
	var doc document
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find competition: %w", err)
	}
	return doc.toModel(), nil
}

// Upsert matches on name so reseeding updates prices in place.
func (s *MongoStore) Upsert(ctx context.Context, c *models.Competition) (err error) {
	defer func(start time.Time) { s.metrics.ObserveStoreOp(storeName, "upsert", start, err) }(time.Now())

	var doc document
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"name": c.Name},
		bson.M{"$set": bson.M{"price": c.Price, "passportRequired": c.PassportRequired}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return fmt.Errorf("upsert competition: %w", err)
	}
	c.ID = doc.ID.Hex()
	return nil
}
