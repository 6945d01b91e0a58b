package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"CrossFM/config"
	"CrossFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and makes sure the payload bucket
// exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("bucket created", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	logger.Info("MinIO client initialized", logger.String("endpoint", cfg.MinioEndpoint))
	return nil
}

// GetMinioClient returns the MinIO client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}

// ObjectStore is the narrow object-storage contract the track store needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, payload io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// PresignedURL returns a fresh, de-referenceable locator for the object.
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// minioObjectStore implements ObjectStore on a MinIO bucket.
type minioObjectStore struct {
	client *minio.Client
	bucket string
}

// NewMinioObjectStore wraps the global MinIO client as an ObjectStore.
func NewMinioObjectStore(bucket string) ObjectStore {
	return &minioObjectStore{client: minioClient, bucket: bucket}
}

func (s *minioObjectStore) Put(ctx context.Context, key string, payload io.Reader, size int64, contentType string) error {
	if s.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, payload, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (s *minioObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.client == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	return object, nil
}

func (s *minioObjectStore) Remove(ctx context.Context, key string) error {
	if s.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %s: %w", key, err)
	}
	return nil
}

func (s *minioObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.client == nil {
		return false, fmt.Errorf("MinIO client not initialized")
	}
	_, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object %s: %w", key, err)
	}
	return true, nil
}

func (s *minioObjectStore) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("MinIO client not initialized")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return u.String(), nil
}
