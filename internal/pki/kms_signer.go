package pki

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
)

// KMSAPI is the subset of the KMS client used for signing.
type KMSAPI interface {
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
}

// KMSSigner implements CASigner with an ECC key held in AWS KMS.
// The CA private key never leaves KMS, only digests are sent for signing.
type KMSSigner struct {
	signer *kmsCryptoSigner
	caCert *x509.Certificate
}

// NewKMSSigner creates a KMSSigner for kmsKeyID, which may be a key ID, key ARN,
// alias name or alias ARN. caCertPEM must hold the CA certificate issued for the
// KMS key pair.
func NewKMSSigner(ctx context.Context, client KMSAPI, kmsKeyID string, caCertPEM []byte) (*KMSSigner, error) {
	caCert, err := ParseCertificatePEM(caCertPEM)
	if err != nil {
		return nil, err
	}

	signer, err := newKMSCryptoSigner(ctx, client, kmsKeyID)
	if err != nil {
		return nil, err
	}

	certPubKey, ok := caCert.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("CA certificate public key is not ECDSA")
	}

	if !signer.publicKey.Equal(certPubKey) {
		return nil, fmt.Errorf("KMS public key does not match CA certificate public key")
	}

	return &KMSSigner{
		signer: signer,
		caCert: caCert,
	}, nil
}

// NewKMSSignerFromConfig builds the KMS client from awsConfig.
func NewKMSSignerFromConfig(ctx context.Context, awsConfig aws.Config, kmsKeyID string, caCertPEM []byte) (*KMSSigner, error) {
	return NewKMSSigner(ctx, kms.NewFromConfig(awsConfig), kmsKeyID, caCertPEM)
}

// SignCertificate signs a certificate template using AWS KMS.
func (s *KMSSigner) SignCertificate(template *x509.Certificate) ([]byte, error) {
	return x509.CreateCertificate(rand.Reader, template, s.caCert, template.PublicKey, s.signer)
}

// GetCACertificate returns the CA certificate.
func (s *KMSSigner) GetCACertificate() (*x509.Certificate, error) {
	return s.caCert, nil
}

// kmsCryptoSigner implements crypto.Signer using AWS KMS
type kmsCryptoSigner struct {
	client    KMSAPI
	kmsKeyID  string
	publicKey *ecdsa.PublicKey
	ctx       context.Context
}

func newKMSCryptoSigner(ctx context.Context, client KMSAPI, kmsKeyID string) (*kmsCryptoSigner, error) {
	pubKeyOutput, err := client.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(kmsKeyID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from KMS: %w", err)
	}

	kmsPublicKey, err := x509.ParsePKIXPublicKey(pubKeyOutput.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse KMS public key: %w", err)
	}

	ecdsaPubKey, ok := kmsPublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("KMS key is not ECDSA (got %T)", kmsPublicKey)
	}

	return &kmsCryptoSigner{
		client:    client,
		kmsKeyID:  kmsKeyID,
		publicKey: ecdsaPubKey,
		ctx:       ctx,
	}, nil
}

// Public returns the public key
func (k *kmsCryptoSigner) Public() crypto.PublicKey {
	return k.publicKey
}

// Sign sends the precomputed digest to KMS. KMS returns an ASN.1 DER ECDSA
// signature, which is the encoding x509.CreateCertificate expects.
func (k *kmsCryptoSigner) Sign(_ io.Reader, digest []byte, opts crypto.SignerOpts) ([]byte, error) {
	var algorithm types.SigningAlgorithmSpec
	switch opts.HashFunc() {
	case crypto.SHA256:
		algorithm = types.SigningAlgorithmSpecEcdsaSha256
	case crypto.SHA384:
		algorithm = types.SigningAlgorithmSpecEcdsaSha384
	case crypto.SHA512:
		algorithm = types.SigningAlgorithmSpecEcdsaSha512
	default:
		return nil, fmt.Errorf("KMS signer does not support hash %v", opts.HashFunc())
	}

	signOutput, err := k.client.Sign(k.ctx, &kms.SignInput{
		KeyId:            aws.String(k.kmsKeyID),
		Message:          digest,
		MessageType:      types.MessageTypeDigest,
		SigningAlgorithm: algorithm,
	})
	if err != nil {
		return nil, fmt.Errorf("KMS sign operation failed: %w", err)
	}

	return signOutput.Signature, nil
}
