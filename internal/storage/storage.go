// Package storage writes corpus output to a local directory or an object
// store. Every Put overwrites an existing object of the same name.
package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
)

// Store is the output side of a corpus run.
type Store interface {
	// Prepare creates the destination (directory or bucket) if needed.
	Prepare(ctx context.Context) error
	// Put writes data under name, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Location describes where name ends up, for logs and reports.
	Location(name string) string
	Close() error
}

// Target is a parsed output destination.
type Target struct {
	Scheme string // "file", "s3" or "gs"
	Bucket string
	Prefix string // object key prefix, or the directory for "file"
}

// ParseTarget understands s3://bucket/prefix, gs://bucket/prefix and plain
// filesystem paths.
func ParseTarget(raw string) (Target, error) {
	for _, scheme := range []string{"s3", "gs"} {
		rest, ok := strings.CutPrefix(raw, scheme+"://")
		if !ok {
			continue
		}
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Target{}, fmt.Errorf("%s: missing bucket name", raw)
		}
		return Target{Scheme: scheme, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	}
	if strings.Contains(raw, "://") {
		return Target{}, fmt.Errorf("%s: unsupported output scheme", raw)
	}
	if raw == "" {
		return Target{}, fmt.Errorf("empty output path")
	}
	return Target{Scheme: "file", Prefix: filepath.Clean(raw)}, nil
}

// Open returns the Store for raw. s3 is only consulted for s3:// targets.
func Open(ctx context.Context, raw string, s3 S3Config) (Store, error) {
	t, err := ParseTarget(raw)
	if err != nil {
		return nil, err
	}
	switch t.Scheme {
	case "s3":
		s3.Bucket = t.Bucket
		return NewS3(s3, t.Prefix)
	case "gs":
		return NewGCS(ctx, t.Bucket, t.Prefix)
	default:
		return NewLocal(t.Prefix), nil
	}
}

func objectKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
