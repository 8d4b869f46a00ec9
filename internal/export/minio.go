package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/config"
	"github.com/iwvelando/invoice-roi/pkg/constants"
)

// MinioExporter uploads reports to an S3-compatible bucket and hands back a
// presigned download URL.
type MinioExporter struct {
	client *minio.Client
	bucket string
	expiry time.Duration
	logger *zap.Logger
}

// NewMinioExporter creates a client for cfg. No request is made until the
// first call.
func NewMinioExporter(cfg config.MinioConfig, logger *zap.Logger) (*MinioExporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio exporter requires a bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	expireDays := cfg.ExpireDays
	if expireDays <= 0 {
		expireDays = constants.DefaultExportExpireDays
	}

	return &MinioExporter{
		client: client,
		bucket: cfg.Bucket,
		expiry: time.Duration(expireDays) * 24 * time.Hour,
		logger: logger,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (e *MinioExporter) EnsureBucket(ctx context.Context) error {
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		e.logger.Info("created report bucket",
			zap.String("op", "export.MinioExporter.EnsureBucket"),
			zap.String("bucket", e.bucket),
		)
	}
	return nil
}

// Export uploads body as object name and returns a presigned GET URL.
func (e *MinioExporter) Export(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	_, err := e.client.PutObject(ctx, e.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	url, err := e.PresignedURL(ctx, name)
	if err != nil {
		return "", err
	}

	e.logger.Info("exported report",
		zap.String("op", "export.MinioExporter.Export"),
		zap.String("bucket", e.bucket),
		zap.String("object", name),
	)
	return url, nil
}

// PresignedURL returns a time-limited download URL for an object.
func (e *MinioExporter) PresignedURL(ctx context.Context, name string) (string, error) {
	url, err := e.client.PresignedGetObject(ctx, e.bucket, name, e.expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}
