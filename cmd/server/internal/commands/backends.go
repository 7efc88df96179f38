package commands

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/wolfeidau/certenroll/internal/acmpca"
	"github.com/wolfeidau/certenroll/internal/awsconfig"
	"github.com/wolfeidau/certenroll/internal/enroll"
	"github.com/wolfeidau/certenroll/internal/objectstore"
	"github.com/wolfeidau/certenroll/internal/pki"
	"github.com/wolfeidau/certenroll/internal/rootca"
)

// awsLoader loads the AWS config at most once, and only for backends that need it.
type awsLoader func() (aws.Config, error)

func newAWSLoader(ctx context.Context, flags AWSFlags) awsLoader {
	return sync.OnceValues(func() (aws.Config, error) {
		return awsconfig.Load(ctx, flags.config())
	})
}

func newAuthority(ctx context.Context, flags CAFlags, loadAWS awsLoader) (pki.CertificateAuthority, error) {
	switch flags.Backend {
	case "file":
		signer, err := pki.NewFileSigner(flags.CAKey, flags.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to create file signer: %w", err)
		}
		return pki.NewLocalAuthority(signer), nil

	case "kms":
		certPEM, err := os.ReadFile(flags.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}

		awsCfg, err := loadAWS()
		if err != nil {
			return nil, err
		}

		signer, err := pki.NewKMSSignerFromConfig(ctx, awsCfg, flags.KMSKeyID, certPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to create kms signer: %w", err)
		}
		return pki.NewLocalAuthority(signer), nil

	default:
		awsCfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		return acmpca.NewFromConfig(awsCfg, flags.IntermediateCAARN), nil
	}
}

func newEnrollService(ctx context.Context, flags CAFlags, loadAWS awsLoader) (*enroll.Service, error) {
	if err := flags.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate ca flags: %w", err)
	}

	authority, err := newAuthority(ctx, flags, loadAWS)
	if err != nil {
		return nil, err
	}

	return enroll.NewService(authority, enroll.Config{
		Params: flags.signingParameters(),
		Poll:   flags.pollPolicy(),
	}), nil
}

func newRootStore(flags RootStoreFlags, endpoint string, loadAWS awsLoader) (objectstore.Store, error) {
	if flags.Store == "file" {
		return objectstore.NewFileStore(flags.Dir), nil
	}

	awsCfg, err := loadAWS()
	if err != nil {
		return nil, err
	}

	if flags.Store == "ssm" {
		return objectstore.NewSSMStoreFromConfig(awsCfg, endpoint), nil
	}
	return objectstore.NewS3StoreFromConfig(awsCfg, endpoint), nil
}

func newRootService(flags RootStoreFlags, endpoint string, loadAWS awsLoader) (*rootca.Service, error) {
	if err := flags.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate root store flags: %w", err)
	}

	store, err := newRootStore(flags, endpoint, loadAWS)
	if err != nil {
		return nil, err
	}

	return rootca.NewService(store, flags.Bucket), nil
}
