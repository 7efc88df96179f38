// Package awsconfig builds the shared AWS SDK configuration used by every
// AWS backed component.
package awsconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AuthMethod selects where credentials come from.
type AuthMethod string

const (
	// AuthDefault uses the SDK default credential chain.
	AuthDefault AuthMethod = "default"
	// AuthStatic uses a fixed access key, typically for LocalStack.
	AuthStatic AuthMethod = "static"
	// AuthAssumeRole assumes RoleARN using the default chain.
	AuthAssumeRole AuthMethod = "role"
)

var (
	ErrMissingStaticCredentials = errors.New("static credentials require an access key id and secret access key")
	ErrMissingRoleARN           = errors.New("assume role requires a role ARN")
	ErrUnknownAuthMethod        = errors.New("unknown AWS auth method")
)

// Config describes how to reach AWS.
type Config struct {
	Region     string
	Endpoint   string
	AuthMethod AuthMethod

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	RoleARN string
}

// Validate checks the fields required by the selected auth method.
func (c Config) Validate() error {
	switch c.AuthMethod {
	case "", AuthDefault:
		return nil
	case AuthStatic:
		if c.AccessKeyID == "" || c.SecretAccessKey == "" {
			return ErrMissingStaticCredentials
		}
		return nil
	case AuthAssumeRole:
		if c.RoleARN == "" {
			return ErrMissingRoleARN
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAuthMethod, c.AuthMethod)
	}
}

// Load returns an aws.Config for cfg. A non empty Endpoint overrides the
// endpoint of every client built from it.
func Load(ctx context.Context, cfg Config) (aws.Config, error) {
	if err := cfg.Validate(); err != nil {
		return aws.Config{}, err
	}

	opts := baseOptions(cfg)

	switch cfg.AuthMethod {
	case AuthStatic:
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	case AuthAssumeRole:
		stsCfg, err := config.LoadDefaultConfig(ctx, baseOptions(cfg)...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
		}

		provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(stsCfg), cfg.RoleARN)
		opts = append(opts, config.WithCredentialsProvider(aws.NewCredentialsCache(provider)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awsCfg, nil
}

func baseOptions(cfg Config) []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	return opts
}
