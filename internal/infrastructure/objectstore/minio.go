// Package objectstore uploads generated media to an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"NewsBrief/internal/config"
	"NewsBrief/internal/ports"
)

const (
	placeholderBaseURL = "https://test-s3.example.com"
	imageCacheControl  = "max-age=31536000"
)

// Uploader writes objects with minio-go. Without credentials it uploads
// nothing and hands back a placeholder URL so local runs still complete.
type Uploader struct {
	client     *minio.Client
	bucket     string
	publicBase string
	logger     *slog.Logger
}

var _ ports.ObjectStorage = (*Uploader)(nil)

// NewUploader connects to the configured S3-compatible endpoint.
func NewUploader(cfg config.StorageConfig, logger *slog.Logger) (*Uploader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u := &Uploader{
		bucket:     cfg.Bucket,
		publicBase: publicBase(cfg),
		logger:     logger.With("component", "object_storage", "bucket", cfg.Bucket),
	}

	if cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		u.logger.Warn("storage credentials missing, uploads return placeholder urls")
		return u, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	u.client = client
	return u, nil
}

func publicBase(cfg config.StorageConfig) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}

// Upload stores data under key and returns its public URL. Images are
// marked cacheable for a year.
func (u *Uploader) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	if u.client == nil {
		return placeholderBaseURL + "/" + key, nil
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if strings.HasPrefix(contentType, "image/") {
		opts.CacheControl = imageCacheControl
	}

	info, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	u.logger.Debug("object uploaded", "key", key, "size", info.Size)
	return u.PublicURL(key), nil
}

// PublicURL is where a stored key is served from.
func (u *Uploader) PublicURL(key string) string {
	return u.publicBase + "/" + strings.TrimLeft(key, "/")
}
