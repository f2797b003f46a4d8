package services

import (
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"
)

// B2ContentStore stores file content in a Backblaze B2 bucket. Objects
// are written and read by the opaque key the upload coordinator makes
// up, never by the user-visible name.
type B2ContentStore struct {
	client *b2.Client
	bucket *b2.Bucket
}

func NewB2ContentStore(ctx context.Context, keyID, applicationKey, bucketName string) (*B2ContentStore, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &B2ContentStore{client: client, bucket: bucket}, nil
}

func (s *B2ContentStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	writer := s.bucket.Object(key).NewWriter(ctx)

	written, err := io.Copy(writer, r)
	if err != nil {
		writer.Close()
		return 0, fmt.Errorf("failed to upload content to B2: %w", err)
	}
	if err := writer.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish B2 upload: %w", err)
	}
	return written, nil
}

func (s *B2ContentStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.bucket.Object(key).NewReader(ctx), nil
}

func (s *B2ContentStore) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete content from B2: %w", err)
	}
	return nil
}
