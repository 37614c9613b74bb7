package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/time/rate"

	apperrors "github.com/neurovol/neurovol/pkg/errors"
)

// S3Config configures an S3Backend.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // for S3-compatible services (MinIO, etc.)

	// RequestsPerSecond throttles outbound S3 calls; zero disables
	// throttling. Object stores bill per-request and often rate-limit
	// per prefix, so ingestion jobs that hammer a single scale's
	// blocks need a client-side limiter.
	RequestsPerSecond float64
}

// S3Backend implements Backend against an AWS S3 (or S3-compatible)
// bucket.
type S3Backend struct {
	client  *s3.Client
	bucket  string
	limiter *rate.Limiter
}

// NewS3Backend builds a client from cfg and verifies connectivity lazily
// (on first call) rather than at construction time.
func NewS3Backend(ctx context.Context, cfg *S3Config) (*S3Backend, error) {
	var awsCfg aws.Config
	var err error

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to load aws config", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond))
	}

	return &S3Backend{
		client:  s3.NewFromConfig(awsCfg, opts...),
		bucket:  cfg.Bucket,
		limiter: limiter,
	}, nil
}

func (b *S3Backend) wait(ctx context.Context) error {
	if b.limiter == nil {
		return nil
	}
	return b.limiter.Wait(ctx)
}

// Type reports "s3".
func (b *S3Backend) Type() string { return "s3" }

// Get fetches the object at key.
func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, apperrors.New(apperrors.CodeNotFound, "key not found: "+key)
		}
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to get "+key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to read body for "+key, err)
	}
	return data, nil
}

// Put writes data at key.
func (b *S3Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIOFailure, "failed to put "+key, err)
	}
	return nil
}

// Exists reports whether key has an object via HeadObject.
func (b *S3Backend) Exists(ctx context.Context, key string) (bool, error) {
	if err := b.wait(ctx); err != nil {
		return false, err
	}
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(b.bucket), Key: aws.String(key)})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.CodeIOFailure, "failed to head "+key, err)
	}
	return true, nil
}

// List returns every key under prefix, sorted.
func (b *S3Backend) List(ctx context.Context, prefix string) ([]string, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeIOFailure, "failed to list "+prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	sort.Strings(keys)
	return keys, nil
}
