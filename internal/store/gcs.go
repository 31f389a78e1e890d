package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSObjects stores objects in a Google Cloud Storage bucket.
type GCSObjects struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSObjects connects to the bucket with the application default
// credentials, or with the service account key file when credentialsFile is set.
func NewGCSObjects(ctx context.Context, bucket string, credentialsFile string) (*GCSObjects, error) {
	opts := make([]option.ClientOption, 0)
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog.Info("storing reports on google cloud storage", "bucket", bucket)

	return &GCSObjects{
		client: client,
		bucket: client.Bucket(bucket),
	}, nil
}

func (g *GCSObjects) Put(ctx context.Context, key string, data []byte) error {
	w := g.bucket.Object(key).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close object writer %s: %w", key, err)
	}

	return nil
}

func (g *GCSObjects) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucket.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s: %w", key, err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (g *GCSObjects) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate on next object: %w", err)
		}
		keys = append(keys, attrs.Name)
	}

	return keys, nil
}

func (g *GCSObjects) Close() error {
	return g.client.Close()
}
