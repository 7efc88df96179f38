package pki

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
)

// RequestTemplate describes the subject of a new certificate signing request.
type RequestTemplate struct {
	CommonName   string
	Organization string
	DNSNames     []string
}

// NewKeyAndCSR generates an ECDSA P-384 key and a CSR signed by it. Both are
// returned PEM encoded.
func NewKeyAndCSR(tmpl RequestTemplate) (keyPEM, csrPEM []byte, err error) {
	if tmpl.CommonName == "" {
		return nil, nil, errors.New("common name is required")
	}

	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}

	subject := pkix.Name{CommonName: tmpl.CommonName}
	if tmpl.Organization != "" {
		subject.Organization = []string{tmpl.Organization}
	}

	dnsNames := tmpl.DNSNames
	if len(dnsNames) == 0 {
		dnsNames = []string{tmpl.CommonName}
	}

	csrDER, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:            subject,
		DNSNames:           dnsNames,
		SignatureAlgorithm: x509.ECDSAWithSHA384,
	}, key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate request: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE REQUEST", Bytes: csrDER}),
		nil
}
