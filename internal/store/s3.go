package store

import (
	"context"
	"errors"
	"path"

	"github.com/imamik/instancectl/internal/platform/s3"
)

// objectClient is the subset of the s3 client the store uses.
type objectClient interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte) error
	DeleteObject(ctx context.Context, key string) error
}

// S3 keeps runtime properties as objects in a bucket.
type S3 struct {
	client objectClient
	prefix string
}

// NewS3 returns a store writing objects below prefix.
func NewS3(client objectClient, prefix string) *S3 {
	return &S3{client: client, prefix: prefix}
}

// Load implements Store.
func (s *S3) Load(ctx context.Context, key string) (map[string]any, error) {
	data, err := s.client.GetObject(ctx, s.objectKey(key))
	if err != nil {
		if errors.Is(err, s3.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(data)
}

// Save implements Store.
func (s *S3) Save(ctx context.Context, key string, props map[string]any) error {
	data, err := encode(props)
	if err != nil {
		return err
	}
	return s.client.PutObject(ctx, s.objectKey(key), data)
}

// Delete implements Store.
func (s *S3) Delete(ctx context.Context, key string) error {
	return s.client.DeleteObject(ctx, s.objectKey(key))
}

func (s *S3) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
