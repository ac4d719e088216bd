// Package mailstore reads raw inbound MIME messages out of object
// storage, where the mail provider drops them.
package mailstore

import (
	"context"
	"fmt"
	"io"

	"outreach_backend/platform/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store fetches raw messages from a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the object store configured for inbound mail.
func New(cfg config.InboundConfig) (*Store, error) {
	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}
	return &Store{client: client, bucket: cfg.GetInboundBucket()}, nil
}

// Fetch reads one raw message. An empty bucket falls back to the
// configured inbound bucket.
func (s *Store) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
	return raw, nil
}
