package objectstore

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI is the subset of the SSM client used by SSMStore.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMStore keeps objects in SSM Parameter Store. The bucket is used as the
// parameter path prefix, so bucket "pki" and key "rootCA.crt" map to the
// parameter "/pki/rootCA.crt".
type SSMStore struct {
	client SSMAPI
}

var (
	_ Store     = (*SSMStore)(nil)
	_ Publisher = (*SSMStore)(nil)
)

// NewSSMStore creates a store backed by client.
func NewSSMStore(client SSMAPI) *SSMStore {
	return &SSMStore{client: client}
}

// NewSSMStoreFromConfig creates a store with an SSM client built from cfg.
func NewSSMStoreFromConfig(cfg aws.Config, endpoint string) *SSMStore {
	client := ssm.NewFromConfig(cfg, func(o *ssm.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return NewSSMStore(client)
}

// ParameterName returns the parameter holding bucket/key.
func ParameterName(bucket, key string) string {
	return path.Join("/", bucket, key)
}

// GetObject fetches the parameter for bucket/key.
func (s *SSMStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	return s.GetParameter(ctx, ParameterName(bucket, key))
}

// GetParameter fetches the named parameter, decrypting SecureString values.
func (s *SSMStore) GetParameter(ctx context.Context, name string) ([]byte, error) {
	output, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: ssm parameter %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to get ssm parameter %s: %w", name, err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil {
		return nil, fmt.Errorf("parameter %s has no value", name)
	}

	return []byte(*output.Parameter.Value), nil
}

// PutObject stores body as a String parameter, overwriting any previous value.
func (s *SSMStore) PutObject(ctx context.Context, bucket, key string, body []byte, _ string) error {
	name := ParameterName(bucket, key)

	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(string(body)),
		Type:      ssmtypes.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to put ssm parameter %s: %w", name, err)
	}
	return nil
}
