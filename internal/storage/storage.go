// Package storage provides owned object storage for generated media. The
// application mirrors provider-hosted media here because provider URLs are
// often time limited.
package storage

import (
	"context"
	"fmt"

	"github.com/dreamframe/server/internal/infra"
)

// Store is the object storage collaborator. Upload persists the bytes under
// key and returns a durable public URL for them.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PublicURL(key string) string
}

// ForConfig selects and builds the configured backend.
func ForConfig(ctx context.Context, cfg *infra.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Store(ctx, S3Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			BaseURL:   cfg.StorageBaseURL,
		})
	case "filesystem":
		return NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.StorageBackend)
	}
}
