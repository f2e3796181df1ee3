package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds settings for an S3-compatible endpoint (MinIO, AWS S3, ...).
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3 writes objects through minio-go. It is safe for concurrent use.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3 creates the client without contacting the endpoint.
func NewS3(cfg S3Config, prefix string) (*S3, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required (CORPUS_S3_ENDPOINT)")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials are required (CORPUS_S3_ACCESS_KEY, CORPUS_S3_SECRET_KEY)")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3{client: cli, bucket: cfg.Bucket, prefix: prefix}, nil
}

// Prepare ensures the bucket exists, creating it if missing.
func (s *S3) Prepare(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

func (s *S3) Put(ctx context.Context, name string, data []byte) error {
	key := objectKey(s.prefix, name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(name)})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3) Location(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, objectKey(s.prefix, name))
}

func (s *S3) Close() error { return nil }
