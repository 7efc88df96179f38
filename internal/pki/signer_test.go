package pki

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/stretchr/testify/require"
)

func TestNewFileSigner(t *testing.T) {
	key, caPEM := newTestCA(t)

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "ca.key")
	certPath := filepath.Join(dir, "ca.crt")
	require.NoError(t, os.WriteFile(keyPath, encodeECKey(t, key), 0o600))
	require.NoError(t, os.WriteFile(certPath, caPEM, 0o600))

	signer, err := NewFileSigner(keyPath, certPath)
	require.NoError(t, err)

	caCert, err := signer.GetCACertificate()
	require.NoError(t, err)
	require.Equal(t, "Test Intermediate CA", caCert.Subject.CommonName)
}

func TestNewFileSigner_missingFiles(t *testing.T) {
	_, err := NewFileSigner(filepath.Join(t.TempDir(), "nope.key"), "nope.crt")
	require.ErrorContains(t, err, "failed to read CA key file")
}

func TestNewFileSignerFromPEM_mismatchedKey(t *testing.T) {
	_, caPEM := newTestCA(t)
	otherKey, _ := newTestCA(t)

	_, err := NewFileSignerFromPEM(encodeECKey(t, otherKey), caPEM)
	require.ErrorContains(t, err, "do not match")
}

func TestNewFileSignerFromPEM_pkcs8(t *testing.T) {
	key, caPEM := newTestCA(t)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	_, err = NewFileSignerFromPEM(pemBlock("PRIVATE KEY", der), caPEM)
	require.NoError(t, err)
}

type fakeKMS struct {
	key        *ecdsa.PrivateKey
	algorithms []types.SigningAlgorithmSpec
	signErr    error
}

func (f *fakeKMS) GetPublicKey(_ context.Context, _ *kms.GetPublicKeyInput, _ ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error) {
	der, err := x509.MarshalPKIXPublicKey(&f.key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &kms.GetPublicKeyOutput{PublicKey: der}, nil
}

func (f *fakeKMS) Sign(_ context.Context, params *kms.SignInput, _ ...func(*kms.Options)) (*kms.SignOutput, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	f.algorithms = append(f.algorithms, params.SigningAlgorithm)
	sig, err := ecdsa.SignASN1(rand.Reader, f.key, params.Message)
	if err != nil {
		return nil, err
	}
	return &kms.SignOutput{Signature: sig}, nil
}

func TestKMSSigner_signsWithKMSKey(t *testing.T) {
	ctx := context.Background()
	key, caPEM := newTestCA(t)
	client := &fakeKMS{key: key}

	signer, err := NewKMSSigner(ctx, client, "alias/test-ca", caPEM)
	require.NoError(t, err)

	authority := NewLocalAuthority(signer)
	handle, err := authority.IssueCertificate(ctx, newTestCSR(t, "kms.example.com"), DefaultSigningParameters("kms", 7))
	require.NoError(t, err)

	leafPEM, _, err := authority.GetCertificate(ctx, handle)
	require.NoError(t, err)

	leaf, err := ParseCertificatePEM([]byte(leafPEM))
	require.NoError(t, err)

	caCert, err := signer.GetCACertificate()
	require.NoError(t, err)
	require.NoError(t, leaf.CheckSignatureFrom(caCert))
	require.Equal(t, []types.SigningAlgorithmSpec{types.SigningAlgorithmSpecEcdsaSha384}, client.algorithms)
}

func TestKMSSigner_publicKeyMismatch(t *testing.T) {
	_, caPEM := newTestCA(t)
	otherKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)

	_, err = NewKMSSigner(context.Background(), &fakeKMS{key: otherKey}, "alias/test-ca", caPEM)
	require.ErrorContains(t, err, "does not match")
}

func TestKMSSigner_signError(t *testing.T) {
	ctx := context.Background()
	key, caPEM := newTestCA(t)

	signer, err := NewKMSSigner(ctx, &fakeKMS{key: key, signErr: errors.New("throttled")}, "alias/test-ca", caPEM)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	_, err = signer.SignCertificate(&x509.Certificate{
		SerialNumber:       big.NewInt(2),
		Subject:            pkix.Name{CommonName: "leaf"},
		NotBefore:          time.Now(),
		NotAfter:           time.Now().Add(time.Hour),
		PublicKey:          &leafKey.PublicKey,
		SignatureAlgorithm: x509.ECDSAWithSHA384,
	})
	require.ErrorContains(t, err, "throttled")
}
