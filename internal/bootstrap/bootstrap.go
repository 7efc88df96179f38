// Package bootstrap prepares LocalStack for local development of the
// enrollment service.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/wolfeidau/certenroll/internal/objectstore"
	"github.com/wolfeidau/certenroll/internal/rootca"
)

// Bootstrap creates the root CA bucket and optionally publishes the root
// certificate. Existing buckets are reused.
func Bootstrap(ctx context.Context, cfg Config) (*Resources, error) {
	if cfg.S3Client == nil {
		return nil, fmt.Errorf("S3Client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	if err := CreateBucket(ctx, cfg.S3Client, cfg.Bucket); err != nil {
		return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
	}

	if cfg.CleanResources {
		if _, err := cfg.S3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(cfg.Bucket),
			Key:    aws.String(rootca.ObjectKey),
		}); err != nil {
			return nil, fmt.Errorf("failed to remove existing root certificate: %w", err)
		}
	}

	resources := &Resources{Bucket: cfg.Bucket}

	if len(cfg.RootCertificate) > 0 {
		store := objectstore.NewS3Store(cfg.S3Client)
		if err := store.PutObject(ctx, cfg.Bucket, rootca.ObjectKey, cfg.RootCertificate, rootca.ContentType); err != nil {
			return nil, fmt.Errorf("failed to publish root certificate: %w", err)
		}
		resources.RootPublished = true
	}

	return resources, nil
}

// CreateBucket creates bucket, succeeding when it already exists.
func CreateBucket(ctx context.Context, client S3API, bucket string) error {
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	if err == nil {
		return nil
	}

	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	if errors.As(err, &owned) || errors.As(err, &exists) {
		return nil
	}

	return err
}
