package pki

import (
	"crypto/x509"
)

// CASigner holds a CA key and signs certificate templates with it.
// Implementations are FileSigner (key on disk) and KMSSigner (key in AWS KMS).
type CASigner interface {
	// SignCertificate signs a fully populated certificate template and returns
	// the DER encoded certificate.
	SignCertificate(template *x509.Certificate) ([]byte, error)

	// GetCACertificate returns the CA certificate used as issuer.
	GetCACertificate() (*x509.Certificate, error)
}
