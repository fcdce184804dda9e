/*
Package storage serves the page's media from an S3-compatible bucket.

Nothing is uploaded by the server; assets are placed in the bucket out of band and handed to
browsers as short-lived presigned download URLs.
*/
package storage

import (
	"context"
	"time"

	"folio/internal/configs"
)

// StorageService defines the public interface for the object store.
type StorageService interface {
	// PresignDownload generates a pre-signed URL for downloading an object.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// GetObjectMetadata retrieves the object's metadata.
	GetObjectMetadata(ctx context.Context, key string) (map[string]string, error)
}

// NewStorageService returns nil, nil when no bucket is configured.
func NewStorageService(cfg configs.S3Config) (StorageService, error) {
	if cfg.BucketName == "" {
		return nil, nil
	}
	// Currently, only S3 compatible implementations are supported.
	return newS3Client(cfg)
}
