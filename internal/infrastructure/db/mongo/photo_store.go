package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/capachica/turismo-api/internal/core/domain"
	"github.com/capachica/turismo-api/internal/core/ports"
)

const photoBucket = "profile_photos"

// PhotoStore keeps profile photos in a GridFS bucket. The object key is used
// as the GridFS filename.
type PhotoStore struct {
	db *mongo.Database
}

func NewPhotoStore(db *mongo.Database) *PhotoStore {
	return &PhotoStore{db: db}
}

// bucket opens a bucket whose deadlines follow ctx. Buckets are cheap and the
// deadline setters are not safe for concurrent use, so one is built per call.
func (s *PhotoStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(photoBucket))
	if err != nil {
		return nil, fmt.Errorf("open bucket: %w", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := b.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	if err := b.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *PhotoStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	if _, err := b.UploadFromStream(key, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}
	return nil
}

func (s *PhotoStore) Open(ctx context.Context, key string) (*ports.StoredPhoto, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := b.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("open photo: %w", err)
	}

	file := stream.GetFile()
	contentType := "application/octet-stream"
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("content_type").StringValueOK(); ok {
			contentType = ct
		}
	}
	return &ports.StoredPhoto{Body: stream, ContentType: contentType, Size: file.Length}, nil
}

func (s *PhotoStore) DeletePrefix(ctx context.Context, prefix string) error {
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	cur, err := b.Find(bson.M{"filename": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}})
	if err != nil {
		return fmt.Errorf("find photos: %w", err)
	}
	defer cur.Close(ctx)

	var files []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &files); err != nil {
		return fmt.Errorf("decode photos: %w", err)
	}
	for _, f := range files {
		if err := b.Delete(f.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("delete photo: %w", err)
		}
	}
	return nil
}
