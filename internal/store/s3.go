package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// S3Client is the subset of the s3 api used by the store.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// S3Objects stores objects in an Amazon S3 bucket.
type S3Objects struct {
	client S3Client
	bucket string
}

type S3Option func(o *s3Options)

type s3Options struct {
	region  string
	roleArn string
}

func WithS3Region(region string) S3Option {
	return func(o *s3Options) {
		o.region = region
	}
}

// WithS3RoleArn assumes the role before accessing the bucket.
func WithS3RoleArn(role string) S3Option {
	return func(o *s3Options) {
		o.roleArn = role
	}
}

// NewS3Objects loads the default aws configuration and connects to the bucket.
func NewS3Objects(ctx context.Context, bucket string, opts ...S3Option) (*S3Objects, error) {
	o := &s3Options{region: "us-east-1"}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(o.region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws configuration: %w", err)
	}

	if o.roleArn != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			stscreds.NewAssumeRoleProvider(sts.NewFromConfig(
				cfg,
				func(so *sts.Options) { so.Region = o.region },
			), o.roleArn),
		)
		slog.Info("assuming aws role for report storage", "role", o.roleArn)
	}

	slog.Info("storing reports on amazon s3", "bucket", bucket, "region", o.region)

	return NewS3ObjectsWithClient(s3.NewFromConfig(cfg), bucket), nil
}

func NewS3ObjectsWithClient(client S3Client, bucket string) *S3Objects {
	return &S3Objects{client: client, bucket: bucket}
}

func (o *S3Objects) Put(ctx context.Context, key string, data []byte) error {
	_, err := o.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(o.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (o *S3Objects) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		noSuchKey := new(types.NoSuchKey)
		if errors.As(err, &noSuchKey) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (o *S3Objects) List(ctx context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0)

	paginator := s3.NewListObjectsV2Paginator(o.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(o.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
		}
		for _, object := range page.Contents {
			keys = append(keys, aws.ToString(object.Key))
		}
	}

	return keys, nil
}

func (o *S3Objects) Close() error {
	return nil
}
