package attachment

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	platformmongo "coffeereg/internal/platform/mongodb"
	"coffeereg/internal/registration/models"
)

// GridFSStore keeps uploads in the passports bucket of the registration
// database, so a deployment needs no shared disk.
type GridFSStore struct {
	db *mongo.Database
}

func NewGridFSStore(db *mongo.Database) *GridFSStore {
	return &GridFSStore{db: db}
}

// bucket is built per call: deadlines are set on the bucket itself.
func (s *GridFSStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(platformmongo.PassportBucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := b.SetWriteDeadline(deadline); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (s *GridFSStore) Save(ctx context.Context, registrationID string, up *models.Upload) (string, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return "", err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "registrationId", Value: registrationID},
		{Key: "contentType", Value: up.ContentType},
		{Key: "originalName", Value: up.Filename},
	})
	id, err := b.UploadFromStream(registrationID+extension(up), up.Content, opts)
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	return backendGridFS + ":" + id.Hex(), nil
}

func (s *GridFSStore) Delete(ctx context.Context, ref string) error {
	backend, key, ok := splitRef(ref)
	if !ok || backend != backendGridFS {
		return fmt.Errorf("not a gridfs attachment reference: %q", ref)
	}
	id, err := primitive.ObjectIDFromHex(key)
	if err != nil {
		return fmt.Errorf("invalid gridfs id %q: %w", key, err)
	}
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := b.Delete(id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
