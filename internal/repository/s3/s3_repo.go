package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"

	"workorder/internal/domain/entity"
	"workorder/pkg/client/s3"
)

// presignExpiry is the longest lifetime S3 accepts for a presigned URL.
const presignExpiry = 7 * 24 * time.Hour

type S3Repo struct {
	StorageS3 *s3.StorageS3
}

func NewS3Repo(storageS3 *s3.StorageS3) *S3Repo {
	return &S3Repo{
		StorageS3: storageS3,
	}
}

// Upload stores the object and returns its public URL, or a presigned one
// when no public base is configured.
func (s *S3Repo) Upload(ctx context.Context, obj entity.MediaObject) (string, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return "", fmt.Errorf("s3 client not initialized")
	}

	contentType := mimetype.Detect(obj.Data).String()
	if !strings.HasPrefix(contentType, string(obj.Resource)+"/") {
		return "", entity.Validation("expected %s content, got %s", obj.Resource, contentType)
	}

	_, err := s.StorageS3.Client.PutObject(
		ctx,
		s.StorageS3.Bucket,
		obj.Key,
		bytes.NewReader(obj.Data),
		int64(len(obj.Data)),
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}

	if s.StorageS3.PublicURL != "" {
		return s.ObjectURL(obj.Key), nil
	}
	return s.GetPresignedURL(ctx, obj.Key, presignExpiry)
}

func (s *S3Repo) ObjectURL(key string) string {
	base := strings.TrimRight(s.StorageS3.PublicURL, "/")
	return base + "/" + url.PathEscape(s.StorageS3.Bucket) + "/" + key
}

func (s *S3Repo) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.StorageS3 == nil || s.StorageS3.Client == nil {
		return "", fmt.Errorf("s3 client not initialized")
	}

	reqParams := url.Values{}

	presignedURL, err := s.StorageS3.Client.PresignedGetObject(ctx, s.StorageS3.Bucket, key, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presigned get object: %w", err)
	}
	return presignedURL.String(), nil
}
