package store

import (
	"context"
	"fmt"

	"github.com/imamik/instancectl/internal/config"
	"github.com/imamik/instancectl/internal/platform/s3"
)

// New builds the store selected by cfg.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StoreLocal, "":
		return NewLocal(cfg.Path)
	case config.StoreS3:
		client, err := s3.NewClient(ctx, cfg.Bucket, s3.Options{
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 store: %w", err)
		}
		return NewS3(client, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
