package pki

import (
	"context"
	"errors"
)

// Errors returned by CertificateAuthority implementations. Backends translate
// their native failures into these so callers can classify them.
var (
	// ErrMalformedCSR is returned when the backend cannot parse or verify the CSR.
	ErrMalformedCSR = errors.New("malformed certificate signing request")

	// ErrInvalidArgs is returned when the backend rejects the signing parameters or CSR content.
	ErrInvalidArgs = errors.New("invalid arguments")

	// ErrIssuancePending is returned by CheckIssued while the certificate is still being issued.
	ErrIssuancePending = errors.New("certificate issuance in progress")

	// ErrIssuanceFailed is returned by CheckIssued when the backend gave up issuing the certificate.
	ErrIssuanceFailed = errors.New("certificate issuance failed")

	// ErrCertificateNotFound is returned when a handle does not identify an issued certificate.
	ErrCertificateNotFound = errors.New("certificate not found")
)

// CertificateAuthority is a signing backend that issues certificates asynchronously.
type CertificateAuthority interface {
	// IssueCertificate submits a PEM encoded CSR and returns an opaque handle
	// identifying the issuance. Every call creates a new certificate.
	IssueCertificate(ctx context.Context, csrPEM []byte, params SigningParameters) (string, error)

	// CheckIssued returns nil once the certificate identified by handle has been
	// issued, ErrIssuancePending while it is still in progress.
	CheckIssued(ctx context.Context, handle string) error

	// GetCertificate returns the PEM encoded leaf certificate and its chain.
	GetCertificate(ctx context.Context, handle string) (leaf string, chain string, err error)

	// GetAuthorityCertificate returns the PEM encoded certificate of the issuing CA.
	GetAuthorityCertificate(ctx context.Context) (string, error)
}
