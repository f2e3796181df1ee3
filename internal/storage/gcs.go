package storage

import (
	"context"
	"errors"
	"fmt"

	gcs "cloud.google.com/go/storage"
)

// GCS writes objects to a Google Cloud Storage bucket using application
// default credentials.
type GCS struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCS creates the client. Credentials are resolved here; the bucket is
// checked in Prepare.
func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

// Prepare verifies that the bucket is reachable. Buckets are never created:
// that needs a project id and billing decisions outside this tool.
func (g *GCS) Prepare(ctx context.Context) error {
	if _, err := g.client.Bucket(g.bucket).Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrBucketNotExist) {
			return fmt.Errorf("gcs bucket %q does not exist", g.bucket)
		}
		return fmt.Errorf("check gcs bucket: %w", err)
	}
	return nil
}

func (g *GCS) Put(ctx context.Context, name string, data []byte) error {
	key := objectKey(g.prefix, name)
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType(name)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", g.bucket, key, err)
	}
	return nil
}

func (g *GCS) Location(name string) string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, objectKey(g.prefix, name))
}

func (g *GCS) Close() error { return g.client.Close() }
