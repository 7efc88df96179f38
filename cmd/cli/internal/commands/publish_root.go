package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wolfeidau/certenroll/internal/awsconfig"
	"github.com/wolfeidau/certenroll/internal/objectstore"
	"github.com/wolfeidau/certenroll/internal/pki"
	"github.com/wolfeidau/certenroll/internal/rootca"
)

// PublishRootCmd uploads the root CA certificate where the service reads it.
type PublishRootCmd struct {
	Cert   string `arg:"" help:"path to the PEM encoded root CA certificate" type:"existingfile"`
	Store  string `help:"destination store (s3, ssm or file)" default:"s3" enum:"s3,ssm,file" env:"CERTENROLL_ROOT_STORE"`
	Bucket string `name:"root-ca-bucket" help:"bucket (or SSM path prefix) to publish to" env:"ROOT_CA_BUCKET"`
	Dir    string `help:"base directory of the file store" default:"." type:"path"`

	AWSRegion   string `help:"AWS region" default:"us-east-1" env:"AWS_REGION"`
	AWSEndpoint string `help:"AWS endpoint override (for LocalStack)" default:"" env:"AWS_ENDPOINT"`
}

func (c *PublishRootCmd) Validate() error {
	if c.Store != "file" && c.Bucket == "" {
		return errors.New("bucket is required (--root-ca-bucket or ROOT_CA_BUCKET)")
	}
	return nil
}

func (c *PublishRootCmd) Run(ctx context.Context, globals *Globals) error {
	cert, err := os.ReadFile(c.Cert)
	if err != nil {
		return fmt.Errorf("failed to read root certificate: %w", err)
	}

	if _, err := pki.ParseCertificatePEM(cert); err != nil {
		return fmt.Errorf("invalid root certificate: %w", err)
	}

	publisher, err := c.publisher(ctx)
	if err != nil {
		return err
	}

	if err := publisher.PutObject(ctx, c.Bucket, rootca.ObjectKey, cert, rootca.ContentType); err != nil {
		return fmt.Errorf("failed to publish root certificate: %w", err)
	}

	fmt.Printf("Published %s to %s %s/%s\n", c.Cert, c.Store, c.Bucket, rootca.ObjectKey)
	return nil
}

func (c *PublishRootCmd) publisher(ctx context.Context) (objectstore.Publisher, error) {
	if c.Store == "file" {
		return objectstore.NewFileStore(c.Dir), nil
	}

	awsCfg, err := awsconfig.Load(ctx, awsconfig.Config{Region: c.AWSRegion, Endpoint: c.AWSEndpoint})
	if err != nil {
		return nil, err
	}

	if c.Store == "ssm" {
		return objectstore.NewSSMStoreFromConfig(awsCfg, c.AWSEndpoint), nil
	}
	return objectstore.NewS3StoreFromConfig(awsCfg, c.AWSEndpoint), nil
}
