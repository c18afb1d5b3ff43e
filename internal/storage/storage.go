// Package storage persists uploaded images on local disk or in an S3 bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/segmentio/ksuid"

	"github.com/redmonkez12/beauty-assistant-api/internal/config"
)

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores size bytes from r under key
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// New creates a storage backend based on configuration
func New(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	switch cfg.StorageType {
	case config.StorageLocal:
		return NewLocalStorage(cfg.Dir)
	case config.StorageS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// NewObjectKey returns a unique, time-sortable key such as
// "faces/2026/10/17/2B3Yx...Q.jpg".
func NewObjectKey(prefix, ext string) string {
	id := ksuid.New()
	d := id.Time().UTC()
	return path.Join(prefix, d.Format("2006/01/02"), id.String()+ext)
}
