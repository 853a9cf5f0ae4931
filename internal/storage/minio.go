package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/rahulds/goblog/internal/models"
)

// MinioStore keeps uploads in an object-storage bucket instead of local
// disk. Posts still record the same relative "posts/<name>" path; the
// frontend is expected to serve them through the bucket's public URL.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and creates the bucket if it does not
// exist yet.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to MinIO: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		log.Printf("Created bucket: %s", bucket)
	}

	fmt.Println("✅ Connected to MinIO")
	return &MinioStore{client: client, bucket: bucket}, nil
}

func (s *MinioStore) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(filename)
	object := uploadsSubdir + "/" + name

	_, err := s.client.PutObject(ctx, s.bucket, object, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload to MinIO: %w", err)
	}
	return object, nil
}

func (s *MinioStore) Remove(ctx context.Context, path string) error {
	if path == "" || path == models.DefaultFeaturedImage {
		return nil
	}
	err := s.client.RemoveObject(ctx, s.bucket, path, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("remove from MinIO: %w", err)
	}
	return nil
}
