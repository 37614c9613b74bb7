package store

import (
	"context"
	"errors"
	"io"
	"sort"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// GCSConfig configures a GCSBackend.
type GCSConfig struct {
	BucketName      string
	CredentialsJSON string
	CredentialsFile string
}

// GCSBackend implements Backend against a Google Cloud Storage bucket.
type GCSBackend struct {
	client *storage.Client
	bucket *storage.BucketHandle
}

// NewGCSBackend authenticates (explicit credentials, or application
// default credentials if none given) and verifies the bucket exists.
func NewGCSBackend(ctx context.Context, cfg *GCSConfig) (*GCSBackend, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to create gcs client", err)
	}

	bucket := client.Bucket(cfg.BucketName)
	if _, err := bucket.Attrs(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to access bucket "+cfg.BucketName, err)
	}

	return &GCSBackend{client: client, bucket: bucket}, nil
}

// Type reports "gcs".
func (g *GCSBackend) Type() string { return "gcs" }

// Get reads the object at key.
func (g *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	reader, err := g.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apperrors.New(apperrors.CodeNotFound, "object not found: "+key)
		}
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to get "+key, err)
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to read "+key, err)
	}
	return data, nil
}

// Put writes data to the object at key.
func (g *GCSBackend) Put(ctx context.Context, key string, data []byte) error {
	writer := g.bucket.Object(key).NewWriter(ctx)
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to write "+key, err)
	}
	if err := writer.Close(); err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to finalize "+key, err)
	}
	return nil
}

// Exists reports whether the object at key exists.
func (g *GCSBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.bucket.Object(key).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.CodeIOFailure, "failed to stat "+key, err)
	}
	return true, nil
}

// List returns every object name under prefix, sorted.
func (g *GCSBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := g.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to list "+prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	sort.Strings(keys)
	return keys, nil
}
