package s3

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL, when set, is the base of durable object URLs (e.g. a CDN or a public bucket endpoint).
	PublicURL string
}

type StorageS3 struct {
	Endpoint  string
	Bucket    string
	PublicURL string
	Client    *minio.Client
}

// NewS3Client connects to the object store and makes sure the bucket exists.
func NewS3Client(ctx context.Context, cfg Config) (*StorageS3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &StorageS3{
		Endpoint:  cfg.Endpoint,
		Bucket:    cfg.Bucket,
		PublicURL: cfg.PublicURL,
		Client:    client,
	}, nil
}
