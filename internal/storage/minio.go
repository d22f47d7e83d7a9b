package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/tair/marketplace/pkg/logger"
)

// Config holds object storage configuration
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ImageStore uploads listing images to a MinIO bucket and returns
// retrievable URLs. The core stores only the URL.
type ImageStore struct {
	client *minio.Client
	bucket string
}

func NewImageStore(cfg Config) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx := context.Background()
	if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, cfg.Bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("failed to make or verify bucket %s: %w", cfg.Bucket, err)
		}
	}

	logger.Logger.Info().
		Str("endpoint", cfg.Endpoint).
		Str("bucket", cfg.Bucket).
		Msg("Image store initialized")

	return &ImageStore{client: client, bucket: cfg.Bucket}, nil
}

// Upload stores image bytes under a random object key, keeping the
// original extension, and returns the public URL.
func (s *ImageStore) Upload(ctx context.Context, originalFilename, contentType string, data []byte) (string, error) {
	ext := filepath.Ext(originalFilename)
	objectKey := fmt.Sprintf("images/%s%s", uuid.NewString(), ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, objectKey)

	logger.Info(ctx).
		Str("object_key", objectKey).
		Int("size_bytes", len(data)).
		Msg("Image uploaded")

	return url, nil
}
