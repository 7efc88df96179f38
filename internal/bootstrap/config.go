package bootstrap

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/wolfeidau/certenroll/internal/objectstore"
)

// S3API is the subset of the S3 client used to prepare the root CA bucket.
type S3API interface {
	objectstore.S3API
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds configuration for bootstrapping LocalStack infrastructure
type Config struct {
	S3Client S3API

	// Bucket receives the root CA certificate.
	Bucket string

	// RootCertificate, when set, is published to Bucket so the root endpoint
	// works immediately.
	RootCertificate []byte

	// CleanResources removes a previously published root certificate first.
	CleanResources bool
}

// Resources describes what Bootstrap prepared.
type Resources struct {
	Bucket        string
	RootPublished bool
}
