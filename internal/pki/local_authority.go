package pki

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PendingTTL is how long an issued certificate waits for retrieval before it
// is discarded.
const PendingTTL = 10 * time.Minute

// LocalAuthority implements CertificateAuthority on top of a CASigner. Issuance
// completes synchronously, so CheckIssued succeeds on the first probe.
type LocalAuthority struct {
	signer CASigner
	now    func() time.Time

	mu     sync.Mutex
	issued map[string]pendingCert
}

type pendingCert struct {
	der      []byte
	issuedAt time.Time
}

// NewLocalAuthority creates a LocalAuthority signing with signer.
func NewLocalAuthority(signer CASigner) *LocalAuthority {
	return &LocalAuthority{
		signer: signer,
		now:    time.Now,
		issued: make(map[string]pendingCert),
	}
}

// IssueCertificate verifies the CSR, signs an end entity certificate and
// returns a urn:uuid handle for it.
func (a *LocalAuthority) IssueCertificate(_ context.Context, csrPEM []byte, params SigningParameters) (string, error) {
	block, _ := pem.Decode(csrPEM)
	if block == nil || block.Type != "CERTIFICATE REQUEST" {
		return "", fmt.Errorf("%w: no CERTIFICATE REQUEST PEM block", ErrMalformedCSR)
	}

	csr, err := x509.ParseCertificateRequest(block.Bytes)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCSR, err)
	}

	if err := csr.CheckSignature(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCSR, err)
	}

	caCert, err := a.signer.GetCACertificate()
	if err != nil {
		return "", fmt.Errorf("failed to load CA certificate: %w", err)
	}

	sigAlg, err := signatureAlgorithm(params.SigningAlgorithm)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	if !algorithmMatchesKey(sigAlg, caCert) {
		return "", fmt.Errorf("%w: signing algorithm %s does not match CA key type", ErrInvalidArgs, params.SigningAlgorithm)
	}

	if params.Validity.Value <= 0 {
		return "", fmt.Errorf("%w: validity must be positive", ErrInvalidArgs)
	}

	notBefore := a.now().UTC()
	notAfter, err := params.Validity.After(notBefore)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return "", fmt.Errorf("failed to generate serial number: %w", err)
	}

	template := &x509.Certificate{
		SerialNumber:       serial,
		Subject:            csr.Subject,
		DNSNames:           csr.DNSNames,
		IPAddresses:        csr.IPAddresses,
		EmailAddresses:     csr.EmailAddresses,
		URIs:               csr.URIs,
		PublicKey:          csr.PublicKey,
		SignatureAlgorithm: sigAlg,
		NotBefore:          notBefore,
		NotAfter:           notAfter,
		KeyUsage:           x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageServerAuth,
			x509.ExtKeyUsageClientAuth,
		},
		BasicConstraintsValid: true,
	}

	der, err := a.signer.SignCertificate(template)
	if err != nil {
		return "", fmt.Errorf("failed to sign certificate: %w", err)
	}

	handle := "urn:uuid:" + uuid.NewString()

	a.mu.Lock()
	a.pruneLocked(notBefore)
	a.issued[handle] = pendingCert{der: der, issuedAt: notBefore}
	a.mu.Unlock()

	return handle, nil
}

// CheckIssued returns nil when handle identifies an issued certificate.
func (a *LocalAuthority) CheckIssued(_ context.Context, handle string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.issued[handle]; !ok {
		return fmt.Errorf("%w: %s", ErrCertificateNotFound, handle)
	}
	return nil
}

// GetCertificate returns the leaf certificate and the CA certificate as chain.
// The handle is consumed; a second call for it fails.
func (a *LocalAuthority) GetCertificate(_ context.Context, handle string) (string, string, error) {
	a.mu.Lock()
	pending, ok := a.issued[handle]
	delete(a.issued, handle)
	a.mu.Unlock()

	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrCertificateNotFound, handle)
	}

	caCert, err := a.signer.GetCACertificate()
	if err != nil {
		return "", "", fmt.Errorf("failed to load CA certificate: %w", err)
	}

	return EncodeCertificatePEM(pending.der), EncodeCertificatePEM(caCert.Raw), nil
}

// pruneLocked drops certificates nobody retrieved within PendingTTL, such as
// those of requests cancelled while waiting.
func (a *LocalAuthority) pruneLocked(now time.Time) {
	for handle, pending := range a.issued {
		if now.Sub(pending.issuedAt) > PendingTTL {
			delete(a.issued, handle)
		}
	}
}

// GetAuthorityCertificate returns the CA certificate.
func (a *LocalAuthority) GetAuthorityCertificate(_ context.Context) (string, error) {
	caCert, err := a.signer.GetCACertificate()
	if err != nil {
		return "", fmt.Errorf("failed to load CA certificate: %w", err)
	}
	return EncodeCertificatePEM(caCert.Raw), nil
}

func algorithmMatchesKey(alg x509.SignatureAlgorithm, caCert *x509.Certificate) bool {
	switch caCert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		return alg == x509.ECDSAWithSHA256 || alg == x509.ECDSAWithSHA384 || alg == x509.ECDSAWithSHA512
	case *rsa.PublicKey:
		return alg == x509.SHA256WithRSA || alg == x509.SHA384WithRSA || alg == x509.SHA512WithRSA
	default:
		return false
	}
}
