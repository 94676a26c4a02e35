// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage writes conversion results to a local path or to an
// S3-compatible bucket addressed as s3://bucket/key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	s3Scheme        = "s3://"
	contentTypeBLOB = "application/octet-stream"
)

// ErrNoObjectStorage is returned when an s3:// target is used without a
// configured object store.
var ErrNoObjectStorage = errors.New("no object storage configured")

// ObjectStore stores whole objects in a bucket.
type ObjectStore interface {
	Store(ctx context.Context, bucket, objectName string, objectBytes []byte, contentType string) error
}

// Target is a parsed output location.
type Target struct {
	// Bucket and Object are set for s3:// targets.
	Bucket string
	Object string

	// Path is set for local targets.
	Path string
}

// IsRemote reports whether the target lives in object storage.
func (t Target) IsRemote() bool { return t.Bucket != "" }

func (t Target) String() string {
	if t.IsRemote() {
		return s3Scheme + t.Bucket + "/" + t.Object
	}
	return t.Path
}

// Name returns the final path element of the target.
func (t Target) Name() string {
	if t.IsRemote() {
		return path.Base(t.Object)
	}
	return filepath.Base(t.Path)
}

// ParseTarget interprets s as s3://bucket/key or as a local path.
func ParseTarget(s string) (Target, error) {
	if s == "" {
		return Target{}, fmt.Errorf("empty output target")
	}
	if !strings.HasPrefix(s, s3Scheme) {
		return Target{Path: s}, nil
	}

	rest := strings.TrimPrefix(s, s3Scheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
		return Target{}, fmt.Errorf("invalid object target %q: want s3://bucket/key", s)
	}
	return Target{Bucket: bucket, Object: object}, nil
}

// ContentType guesses the MIME type from the target name.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return contentTypeBLOB
}

// Save writes data to target. objects may be nil when only local targets are
// expected.
func Save(ctx context.Context, target Target, data []byte, objects ObjectStore) error {
	if !target.IsRemote() {
		return WriteFile(target.Path, data)
	}
	if objects == nil {
		return fmt.Errorf("saving %s: %w", target, ErrNoObjectStorage)
	}
	if err := objects.Store(ctx, target.Bucket, target.Object, data, ContentType(target.Object)); err != nil {
		return fmt.Errorf("saving %s: %w", target, err)
	}
	return nil
}

// WriteFile writes data to dest through a temporary file in the same
// directory and renames it into place, creating the directory if needed.
func WriteFile(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".cloudconvert-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing result: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
