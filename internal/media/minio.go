// Package media stores product images in object storage.
package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Uploader puts an object and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, size int64, body io.Reader) (string, error)
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the scheme://endpoint prefix of returned links.
	PublicURL string
}

// NewMinioClient connects to MinIO and makes sure the bucket exists.
func NewMinioClient(ctx context.Context, cfg MinioConfig, logger *zap.Logger) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info("✅ bucket created", zap.String("bucket", cfg.Bucket))
	}
	logger.Info("✅ connected to MinIO", zap.String("endpoint", cfg.Endpoint))
	return client, nil
}

type MinioUploader struct {
	client *minio.Client
	bucket string
	base   string
	logger *zap.Logger
}

func NewMinioUploader(client *minio.Client, cfg MinioConfig, logger *zap.Logger) *MinioUploader {
	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = scheme + "://" + cfg.Endpoint
	}
	return &MinioUploader{client: client, bucket: cfg.Bucket, base: base, logger: logger}
}

// Upload stores body under products/<uuid><ext> so names never collide.
func (u *MinioUploader) Upload(ctx context.Context, name, contentType string, size int64, body io.Reader) (string, error) {
	key := ObjectKey(name)
	info, err := u.client.PutObject(ctx, u.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	u.logger.Info("📦 image uploaded", zap.String("key", key), zap.Int64("size", info.Size))
	return u.base + "/" + u.bucket + "/" + key, nil
}

// SignedURL returns a time limited GET link for an object previously returned by Upload.
func (u *MinioUploader) SignedURL(ctx context.Context, objectURL string, ttl time.Duration) (string, error) {
	key := strings.TrimPrefix(objectURL, u.base+"/"+u.bucket+"/")
	signed, err := u.client.PresignedGetObject(ctx, u.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return signed.String(), nil
}

func ObjectKey(name string) string {
	ext := strings.ToLower(path.Ext(name))
	return "products/" + uuid.NewString() + ext
}
