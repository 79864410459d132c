// Package minio implements pkg/objectstore against any S3-compatible
// endpoint (MinIO, LocalStack, AWS S3).
package minio

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/objectstore"
)

// Store implements objectstore.Store over the MinIO S3 client.
type Store struct {
	client    *minio.Client
	bucket    string
	publicURL string
	logger    *zap.Logger
}

// Config holds configuration for the S3-compatible store.
type Config struct {
	// Endpoint is the S3 endpoint host:port (e.g., "localhost:9000").
	Endpoint string

	// AccessKey and SecretKey are the static credentials.
	AccessKey string
	SecretKey string

	// Bucket is the bucket holding image blobs.
	Bucket string

	// UseSSL selects https for the endpoint.
	UseSSL bool

	// PublicURL is the base URL used to build dereferenceable locators.
	// Defaults to the endpoint with the scheme implied by UseSSL.
	PublicURL string
}

// NewStore creates a new S3-compatible object store.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	if c.Endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	if c.Bucket == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}

	client, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: c.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating s3 client: %v", objectstore.ErrStore, err)
	}

	publicURL := c.PublicURL
	if publicURL == "" {
		scheme := "http"
		if c.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + c.Endpoint
	}
	publicURL = strings.TrimRight(publicURL, "/")

	logger.Info("connected to object store",
		zap.String("endpoint", c.Endpoint),
		zap.String("bucket", c.Bucket),
	)

	return &Store{
		client:    client,
		bucket:    c.Bucket,
		publicURL: publicURL,
		logger:    logger,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist. Safe to call
// repeatedly.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("%w: checking bucket %q: %v", objectstore.ErrStore, s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// A concurrent EnsureBucket may have won the race.
		exists, checkErr := s.client.BucketExists(ctx, s.bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("%w: creating bucket %q: %v", objectstore.ErrStore, s.bucket, err)
	}

	s.logger.Info("created bucket", zap.String("bucket", s.bucket))
	return nil
}

// Put uploads data under key and returns the public locator.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("%w: uploading %q: %v", objectstore.ErrStore, key, err)
	}

	s.logger.Debug("uploaded blob",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}

// Delete removes the blob under key. Missing keys are a no-op, matching S3
// semantics.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return nil
		}
		return fmt.Errorf("%w: deleting %q: %v", objectstore.ErrStore, key, err)
	}

	s.logger.Debug("deleted blob", zap.String("key", key))
	return nil
}

// List returns the keys under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: listing %q: %v", objectstore.ErrStore, prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	// The S3 client doesn't require explicit cleanup
	return nil
}

var _ objectstore.Store = (*Store)(nil)
