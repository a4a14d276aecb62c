// Package storage uploads backup artifacts to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	// SourceTag is recorded on every uploaded object as provenance.
	SourceTag = "locize-backup"

	defaultEndpoint = "s3.amazonaws.com"
)

// Options configures the storage client. BucketName is required.
type Options struct {
	BucketName      string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint may carry an http:// or https:// scheme; plain http is
	// only honored for non-default endpoints (test doubles, MinIO).
	Endpoint string
}

// Storage wraps a minio client for one bucket.
type Storage struct {
	cli    *minio.Client
	bucket string
}

// New creates a storage client for the configured bucket.
func New(opts Options) (*Storage, error) {
	if opts.BucketName == "" {
		return nil, errors.New("bucket name must be specified")
	}

	endpoint, secure := splitEndpoint(opts.Endpoint)

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &Storage{cli: cli, bucket: opts.BucketName}, nil
}

// Upload puts a local file under key with provenance metadata attached.
func (s *Storage) Upload(ctx context.Context, localPath, key, version string) error {
	_, err := s.cli.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType:  contentType(key),
		UserMetadata: provenance(version),
	})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// UploadBytes puts an in-memory object under key, used for summary records.
func (s *Storage) UploadBytes(ctx context.Context, key string, data []byte, version string) error {
	_, err := s.cli.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  "application/json",
			UserMetadata: provenance(version),
		})
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Location describes the bucket for summary records and logs.
func (s *Storage) Location() string {
	return fmt.Sprintf("s3://%s", s.bucket)
}

// IsRetryable retries server errors and transport failures, not client
// errors such as access denied or a missing bucket.
func IsRetryable(err error) bool {
	var me minio.ErrorResponse
	if errors.As(err, &me) {
		return me.StatusCode >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// transport errors carry no typed response, unfortunately no other
	// way to detect them
	return strings.Contains(strings.ToLower(err.Error()), "http") ||
		strings.Contains(strings.ToLower(err.Error()), "connection")
}

func provenance(version string) map[string]string {
	return map[string]string{
		"source":      SourceTag,
		"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		"version":     version,
	}
}

func contentType(key string) string {
	if strings.HasSuffix(key, ".zst") {
		return "application/zstd"
	}
	return "application/json"
}

func splitEndpoint(endpoint string) (host string, secure bool) {
	switch {
	case endpoint == "":
		return defaultEndpoint, true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	default:
		return endpoint, true
	}
}
