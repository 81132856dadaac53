package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hermeslink/hlink-backup/internal/config"
)

// MinioStorage targets MinIO and other S3-compatible stores such as R2.
type MinioStorage struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinio(cfg *config.UploadTarget) (*MinioStorage, error) {
	endpoint, secure := splitEndpoint(cfg.Endpoint)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	return &MinioStorage{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (m *MinioStorage) Upload(ctx context.Context, localPath string, remoteName string) error {
	_, err := m.client.FPutObject(ctx, m.bucket, objectKey(m.prefix, remoteName), localPath, minio.PutObjectOptions{
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", remoteName, err)
	}
	return nil
}

func (m *MinioStorage) List(ctx context.Context) ([]string, error) {
	return m.list(ctx, func(time.Time) bool { return true })
}

func (m *MinioStorage) Delete(ctx context.Context, remoteName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectKey(m.prefix, remoteName), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", remoteName, err)
	}
	return nil
}

func (m *MinioStorage) GetOldFiles(ctx context.Context, cutoffTime time.Time) ([]string, error) {
	return m.list(ctx, func(modified time.Time) bool { return modified.Before(cutoffTime) })
}

func (m *MinioStorage) list(ctx context.Context, keep func(time.Time) bool) ([]string, error) {
	var files []string
	for object := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: listPrefix(m.prefix)}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if !keep(object.LastModified) {
			continue
		}
		if name := remoteName(m.prefix, object.Key); name != "" {
			files = append(files, name)
		}
	}
	return files, nil
}

// splitEndpoint removes the scheme minio-go does not accept and reports
// whether TLS should be used.
func splitEndpoint(endpoint string) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	default:
		return endpoint, true
	}
}
