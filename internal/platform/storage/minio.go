package storage

import (
	"context"
	"fmt"
	"io"

	"prepsheet/internal/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage is what the user service needs from the image host: store
// bytes, get back a public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader, sizeBytes int64, contentType string) (string, error)
}

type MinioStorage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinioStorage() (*MinioStorage, error) {
	cfg := config.AppConfig
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client failed: %w", err)
	}
	return &MinioStorage{
		client:  client,
		bucket:  cfg.AvatarBucket,
		baseURL: cfg.AvatarBaseURL,
	}, nil
}

func (s *MinioStorage) Upload(ctx context.Context, objectKey string, reader io.Reader, sizeBytes int64, contentType string) (string, error) {
	if objectKey == "" {
		return "", fmt.Errorf("objectKey is required")
	}
	opts := minio.PutObjectOptions{}
	if contentType != "" {
		opts.ContentType = contentType
	}
	if _, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, sizeBytes, opts); err != nil {
		return "", fmt.Errorf("minio put object: %w", err)
	}
	return s.baseURL + "/" + objectKey, nil
}
