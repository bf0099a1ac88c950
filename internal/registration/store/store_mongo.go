package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"coffeereg/internal/platform/metrics"
	"coffeereg/internal/registration/models"
	"coffeereg/pkg/platform/sentinel"
)

const storeName = "registrations"

// document is the stored shape. Field names match the documents written by
// the previous service so existing data stays readable.
type document struct {
	ObjectID        primitive.ObjectID `bson:"_id,omitempty"`
	RegistrationID  string             `bson:"registrationId"`
	Name            string             `bson:"name"`
	Email           string             `bson:"email"`
	Mobile          string             `bson:"mobile"`
	Address         string             `bson:"address"`
	City            string             `bson:"city"`
	State           string             `bson:"state"`
	PostalCode      string             `bson:"pin"`
	NationalID      string             `bson:"aadhaarNumber"`
	CompetitionID   string             `bson:"competition"`
	CompetitionName string             `bson:"competitionName,omitempty"`
	Amount          float64            `bson:"amount"`
	AcceptedTerms   bool               `bson:"acceptedTerms"`
	PassportNumber  string             `bson:"passportNumber,omitempty"`
	AttachmentRef   string             `bson:"passportFile,omitempty"`
	PaymentStatus   string             `bson:"paymentStatus"`
	PaymentID       string             `bson:"paymentId,omitempty"`
	OrderID         string             `bson:"orderId,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func fromModel(r *models.Registration) *document {
	return &document{
		RegistrationID:  r.RegistrationID,
		Name:            r.Name,
		Email:           r.Email,
		Mobile:          r.Mobile,
		Address:         r.Address,
		City:            r.City,
		State:           r.State,
		PostalCode:      r.PostalCode,
		NationalID:      r.NationalID,
		CompetitionID:   r.CompetitionID,
		CompetitionName: r.CompetitionName,
		Amount:          r.Amount,
		AcceptedTerms:   r.AcceptedTerms,
		PassportNumber:  r.PassportNumber,
		AttachmentRef:   r.AttachmentRef,
		PaymentStatus:   string(r.PaymentStatus),
		PaymentID:       r.PaymentID,
		OrderID:         r.OrderID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (d *document) toModel() *models.Registration {
	return &models.Registration{
		RegistrationID:  d.RegistrationID,
		Name:            d.Name,
		Email:           d.Email,
		Mobile:          d.Mobile,
		Address:         d.Address,
		City:            d.City,
		State:           d.State,
		PostalCode:      d.PostalCode,
		NationalID:      d.NationalID,
		CompetitionID:   d.CompetitionID,
		CompetitionName: d.CompetitionName,
		Amount:          d.Amount,
		AcceptedTerms:   d.AcceptedTerms,
		PassportNumber:  d.PassportNumber,
		AttachmentRef:   d.AttachmentRef,
		PaymentStatus:   models.PaymentStatus(d.PaymentStatus),
		PaymentID:       d.PaymentID,
		OrderID:         d.OrderID,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// MongoStore persists registrations in the registrations collection. The
// unique indexes created by mongodb.Handle.EnsureIndexes back Insert's
// conflict detection.
type MongoStore struct {
	coll    *mongo.Collection
	metrics *metrics.Metrics
}

func NewMongo(coll *mongo.Collection, m *metrics.Metrics) *MongoStore {
	return &MongoStore{coll: coll, metrics: m}
}

func (s *MongoStore) observe(op string, start time.Time, err error) {
	s.metrics.ObserveStoreOp(storeName, op, start, err)
}

func (s *MongoStore) Insert(ctx context.Context, reg *models.Registration) (err error) {
	defer func(start time.Time) { s.observe("insert", start, err) }(time.Now())

	_, err = s.coll.InsertOne(ctx, fromModel(reg))
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), "registrationId_unique") {
			return ErrDuplicateID
		}
		return sentinel.ErrConflict
	}
	return fmt.Errorf("insert registration: %w", err)
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Registration, error) {
	var doc document
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) FindByRegistrationID(ctx context.Context, id string) (reg *models.Registration, err error) {
	defer func(start time.Time) { s.observe("find_by_id", start, err) }(time.Now())
	return s.findOne(ctx, bson.M{"registrationId": id})
}

func (s *MongoStore) FindByOrderID(ctx context.Context, orderID string) (reg *models.Registration, err error) {
	defer func(start time.Time) { s.observe("find_by_order", start, err) }(time.Now())
	if orderID == "" {
		return nil, sentinel.ErrNotFound
	}
	return s.findOne(ctx, bson.M{"orderId": orderID})
}

func (s *MongoStore) FindByAnyKey(ctx context.Context, key models.UniquenessKey) (out []*models.Registration, err error) {
	defer func(start time.Time) { s.observe("find_by_key", start, err) }(time.Now())

	or := bson.A{}
	if key.Email != "" {
		or = append(or, bson.M{"email": key.Email})
	}
	if key.Mobile != "" {
		or = append(or, bson.M{"mobile": key.Mobile})
	}
	if key.NationalID != "" {
		or = append(or, bson.M{"aadhaarNumber": key.NationalID})
	}
	if len(or) == 0 {
		return nil, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"$or": or}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find registrations by key: %w", err)
	}
	var docs []document
	if err = cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	out = make([]*models.Registration, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

// UpdateStatus is a single conditional write: the filter excludes records
// already in success, so a concurrent stale update can never overwrite one.
func (s *MongoStore) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, paymentID string, at time.Time) (reg *models.Registration, err error) {
	defer func(start time.Time) { s.observe("update_status", start, err) }(time.Now())

	set := bson.M{"paymentStatus": string(status), "updatedAt": at}
	if paymentID != "" {
		set["paymentId"] = paymentID
	}
	var doc document
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"registrationId": id, "paymentStatus": bson.M{"$ne": string(models.StatusSuccess)}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err == nil {
		return doc.toModel(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	// Nothing matched: either the record is missing or it is already success.
	if _, ferr := s.findOne(ctx, bson.M{"registrationId": id}); ferr != nil {
		return nil, ferr
	}
	return nil, sentinel.ErrInvalidState
}

func (s *MongoStore) AttachOrder(ctx context.Context, id, orderID string, at time.Time) (err error) {
	defer func(start time.Time) { s.observe("attach_order", start, err) }(time.Now())

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"registrationId": id},
		bson.M{"$set": bson.M{"orderId": orderID, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("attach order: %w", err)
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListStalePending(ctx context.Context, cutoff time.Time, limit int) (out []*models.Registration, err error) {
	defer func(start time.Time) { s.observe("list_stale", start, err) }(time.Now())

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{
		"paymentStatus": string(models.StatusPending),
		"orderId":       bson.M{"$exists": true, "$ne": ""},
		"updatedAt":     bson.M{"$lt": cutoff},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("list stale registrations: %w", err)
	}
	var docs []document
	if err = cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	out = make([]*models.Registration, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}
