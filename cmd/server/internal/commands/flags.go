package commands

import (
	"errors"
	"time"

	"github.com/wolfeidau/certenroll/internal/awsconfig"
	"github.com/wolfeidau/certenroll/internal/enroll"
	"github.com/wolfeidau/certenroll/internal/pki"
	"github.com/wolfeidau/certenroll/internal/servertls"
)

// CAFlags select and configure the signing backend.
type CAFlags struct {
	Backend           string `name:"ca-backend" help:"signing backend (acmpca, file or kms)" default:"acmpca" enum:"acmpca,file,kms" env:"CERTENROLL_CA_BACKEND"`
	IntermediateCAARN string `name:"intermediate-ca-arn" help:"ARN of the ACM PCA intermediate CA" env:"INTERMEDIATE_CA_ARN"`

	ValidityDays     int64  `help:"certificate validity in days" default:"365" env:"VALIDITY_DAYS"`
	SigningAlgorithm string `help:"signing algorithm" default:"SHA384WITHECDSA" env:"CERTENROLL_SIGNING_ALGORITHM"`
	TemplateARN      string `help:"ACM PCA certificate template ARN" default:"arn:aws:acm-pca:::template/EndEntityCertificate/V1" env:"CERTENROLL_TEMPLATE_ARN"`

	PollDelay       time.Duration `help:"delay between issuance status checks" default:"1s" env:"CERTENROLL_POLL_DELAY"`
	PollMaxAttempts uint          `help:"maximum issuance status checks" default:"10" env:"CERTENROLL_POLL_MAX_ATTEMPTS"`

	// Local signing backends
	CAKey    string `name:"ca-key" help:"path to the CA private key (file backend)" type:"path" env:"CERTENROLL_CA_KEY"`
	CACert   string `name:"ca-cert" help:"path to the CA certificate (file and kms backends)" type:"path" env:"CERTENROLL_CA_CERT"`
	KMSKeyID string `name:"kms-key-id" help:"KMS key id or ARN holding the CA key (kms backend)" env:"CERTENROLL_KMS_KEY_ID"`
}

func (f *CAFlags) Validate() error {
	switch f.Backend {
	case "acmpca":
		if f.IntermediateCAARN == "" {
			return errors.New("intermediate CA ARN is required (--intermediate-ca-arn or INTERMEDIATE_CA_ARN)")
		}
	case "file":
		if f.CAKey == "" || f.CACert == "" {
			return errors.New("CA key and certificate are required for the file backend (--ca-key, --ca-cert)")
		}
	case "kms":
		if f.KMSKeyID == "" || f.CACert == "" {
			return errors.New("KMS key id and CA certificate are required for the kms backend (--kms-key-id, --ca-cert)")
		}
	}

	if f.ValidityDays <= 0 {
		return errors.New("validity must be at least one day (--validity-days or VALIDITY_DAYS)")
	}
	if f.PollMaxAttempts == 0 {
		return errors.New("poll max attempts must be at least one (--poll-max-attempts)")
	}
	return nil
}

func (f *CAFlags) authorityID() string {
	if f.Backend == "acmpca" {
		return f.IntermediateCAARN
	}
	return f.Backend
}

func (f *CAFlags) signingParameters() pki.SigningParameters {
	return pki.SigningParameters{
		AuthorityID:      f.authorityID(),
		SigningAlgorithm: f.SigningAlgorithm,
		Validity:         pki.Validity{Value: f.ValidityDays, Unit: pki.ValidityDays},
		TemplateID:       f.TemplateARN,
	}
}

func (f *CAFlags) pollPolicy() enroll.PollPolicy {
	return enroll.PollPolicy{
		Delay:       f.PollDelay,
		MaxAttempts: f.PollMaxAttempts,
	}
}

// RootStoreFlags select where the root certificate is read from.
type RootStoreFlags struct {
	Store  string `name:"root-store" help:"root certificate store (s3, ssm or file)" default:"s3" enum:"s3,ssm,file" env:"CERTENROLL_ROOT_STORE"`
	Bucket string `name:"root-ca-bucket" help:"bucket (or SSM path prefix) holding rootCA.crt" env:"ROOT_CA_BUCKET"`
	Dir    string `name:"root-store-dir" help:"base directory of the file store" default:"." type:"path" env:"CERTENROLL_ROOT_STORE_DIR"`
}

func (f *RootStoreFlags) Validate() error {
	if f.Store != "file" && f.Bucket == "" {
		return errors.New("root CA bucket is required (--root-ca-bucket or ROOT_CA_BUCKET)")
	}
	return nil
}

// AWSFlags configure the shared AWS SDK config.
type AWSFlags struct {
	Region          string `help:"AWS region" default:"us-east-1" env:"AWS_REGION"`
	Endpoint        string `help:"AWS endpoint override (for LocalStack)" default:"" env:"AWS_ENDPOINT"`
	AuthMethod      string `help:"AWS credential source (default, static or role)" default:"default" enum:"default,static,role" env:"CERTENROLL_AWS_AUTH_METHOD"`
	AccessKeyID     string `help:"static access key id" env:"CERTENROLL_AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `help:"static secret access key" env:"CERTENROLL_AWS_SECRET_ACCESS_KEY"`
	SessionToken    string `help:"static session token" env:"CERTENROLL_AWS_SESSION_TOKEN"`
	RoleARN         string `help:"role to assume" env:"CERTENROLL_AWS_ROLE_ARN"`
}

func (f *AWSFlags) config() awsconfig.Config {
	return awsconfig.Config{
		Region:          f.Region,
		Endpoint:        f.Endpoint,
		AuthMethod:      awsconfig.AuthMethod(f.AuthMethod),
		AccessKeyID:     f.AccessKeyID,
		SecretAccessKey: f.SecretAccessKey,
		SessionToken:    f.SessionToken,
		RoleARN:         f.RoleARN,
	}
}

// TLSFlags configure HTTPS for the serve command.
type TLSFlags struct {
	Cert          string `help:"path to TLS cert file" default:"" type:"path" env:"CERTENROLL_TLS_CERT"`
	Key           string `help:"path to TLS key file" default:"" type:"path" env:"CERTENROLL_TLS_KEY"`
	ClientCA      string `name:"client-ca" help:"path to a CA bundle, enables mutual TLS" default:"" type:"path" env:"CERTENROLL_TLS_CLIENT_CA"`
	CertParam     string `name:"cert-param" help:"SSM parameter holding the TLS cert" default:"" env:"CERTENROLL_TLS_CERT_PARAM"`
	KeyParam      string `name:"key-param" help:"SSM parameter holding the TLS key" default:"" env:"CERTENROLL_TLS_KEY_PARAM"`
	ClientCAParam string `name:"client-ca-param" help:"SSM parameter holding the client CA bundle" default:"" env:"CERTENROLL_TLS_CLIENT_CA_PARAM"`
}

func (f *TLSFlags) config() servertls.Config {
	return servertls.Config{
		CertFile:      f.Cert,
		KeyFile:       f.Key,
		ClientCAFile:  f.ClientCA,
		CertParam:     f.CertParam,
		KeyParam:      f.KeyParam,
		ClientCAParam: f.ClientCAParam,
	}
}
