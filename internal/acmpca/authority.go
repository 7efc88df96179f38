// Package acmpca implements pki.CertificateAuthority on AWS Private CA.
package acmpca

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acmpca"
	"github.com/aws/aws-sdk-go-v2/service/acmpca/types"
	"github.com/wolfeidau/certenroll/internal/pki"
)

// API is the subset of the ACM PCA client used by Authority.
type API interface {
	IssueCertificate(ctx context.Context, params *acmpca.IssueCertificateInput, optFns ...func(*acmpca.Options)) (*acmpca.IssueCertificateOutput, error)
	GetCertificate(ctx context.Context, params *acmpca.GetCertificateInput, optFns ...func(*acmpca.Options)) (*acmpca.GetCertificateOutput, error)
	GetCertificateAuthorityCertificate(ctx context.Context, params *acmpca.GetCertificateAuthorityCertificateInput, optFns ...func(*acmpca.Options)) (*acmpca.GetCertificateAuthorityCertificateOutput, error)
}

// Authority issues certificates from a single private CA identified by its ARN.
type Authority struct {
	client API
	caARN  string
}

var _ pki.CertificateAuthority = (*Authority)(nil)

// New creates an Authority for the certificate authority caARN.
func New(client API, caARN string) *Authority {
	return &Authority{
		client: client,
		caARN:  caARN,
	}
}

// NewFromConfig creates an Authority with an ACM PCA client built from cfg.
func NewFromConfig(cfg aws.Config, caARN string, optFns ...func(*acmpca.Options)) *Authority {
	return New(acmpca.NewFromConfig(cfg, optFns...), caARN)
}

// IssueCertificate submits csrPEM and returns the ARN of the new certificate.
// params.AuthorityID, when set, selects the CA instead of the default one.
func (a *Authority) IssueCertificate(ctx context.Context, csrPEM []byte, params pki.SigningParameters) (string, error) {
	input := &acmpca.IssueCertificateInput{
		CertificateAuthorityArn: aws.String(a.authorityARN(params)),
		Csr:                     csrPEM,
		SigningAlgorithm:        types.SigningAlgorithm(params.SigningAlgorithm),
		Validity: &types.Validity{
			Value: aws.Int64(params.Validity.Value),
			Type:  types.ValidityPeriodType(params.Validity.Unit),
		},
	}
	if params.TemplateID != "" {
		input.TemplateArn = aws.String(params.TemplateID)
	}

	out, err := a.client.IssueCertificate(ctx, input)
	if err != nil {
		return "", classifyIssueError(err)
	}

	if out.CertificateArn == nil {
		return "", errors.New("issue certificate returned no certificate ARN")
	}

	return aws.ToString(out.CertificateArn), nil
}

// CheckIssued probes the certificate with GetCertificate, which fails with
// RequestInProgressException until issuance completes.
func (a *Authority) CheckIssued(ctx context.Context, handle string) error {
	_, err := a.client.GetCertificate(ctx, &acmpca.GetCertificateInput{
		CertificateAuthorityArn: aws.String(a.caARNFor(handle)),
		CertificateArn:          aws.String(handle),
	})
	if err == nil {
		return nil
	}

	var inProgress *types.RequestInProgressException
	if errors.As(err, &inProgress) {
		return pki.ErrIssuancePending
	}

	var failed *types.RequestFailedException
	if errors.As(err, &failed) {
		return fmt.Errorf("%w: %s", pki.ErrIssuanceFailed, failed.ErrorMessage())
	}

	return wrapAWSError(err, "failed to check certificate status")
}

// GetCertificate returns the issued certificate and its chain.
func (a *Authority) GetCertificate(ctx context.Context, handle string) (string, string, error) {
	out, err := a.client.GetCertificate(ctx, &acmpca.GetCertificateInput{
		CertificateAuthorityArn: aws.String(a.caARNFor(handle)),
		CertificateArn:          aws.String(handle),
	})
	if err != nil {
		return "", "", wrapAWSError(err, "failed to get certificate")
	}

	return aws.ToString(out.Certificate), aws.ToString(out.CertificateChain), nil
}

// GetAuthorityCertificate returns the CA certificate.
func (a *Authority) GetAuthorityCertificate(ctx context.Context) (string, error) {
	out, err := a.client.GetCertificateAuthorityCertificate(ctx, &acmpca.GetCertificateAuthorityCertificateInput{
		CertificateAuthorityArn: aws.String(a.caARN),
	})
	if err != nil {
		return "", wrapAWSError(err, "failed to get certificate authority certificate")
	}

	return aws.ToString(out.Certificate), nil
}

func (a *Authority) authorityARN(params pki.SigningParameters) string {
	if params.AuthorityID != "" {
		return params.AuthorityID
	}
	return a.caARN
}

// caARNFor returns the CA that issued certARN. Certificate ARNs have the form
// <ca-arn>/certificate/<serial>.
func (a *Authority) caARNFor(certARN string) string {
	if caARN, _, ok := strings.Cut(certARN, "/certificate/"); ok {
		return caARN
	}
	return a.caARN
}

// classifyIssueError maps IssueCertificate failures onto pki errors. Only
// MalformedCSRException and InvalidArgsException are client errors.
func classifyIssueError(err error) error {
	var malformed *types.MalformedCSRException
	if errors.As(err, &malformed) {
		return fmt.Errorf("%w: %s", pki.ErrMalformedCSR, malformed.ErrorMessage())
	}

	var invalidArgs *types.InvalidArgsException
	if errors.As(err, &invalidArgs) {
		return fmt.Errorf("%w: %s", pki.ErrInvalidArgs, invalidArgs.ErrorMessage())
	}

	return wrapAWSError(err, "failed to issue certificate")
}

func wrapAWSError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
