package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/certenroll/internal/enroll"
	"github.com/wolfeidau/certenroll/internal/pki"
	"github.com/wolfeidau/certenroll/internal/pki/pkitest"
)

func defaultCAFlags() CAFlags {
	return CAFlags{
		Backend:           "acmpca",
		IntermediateCAARN: "arn:aws:acm-pca:us-east-1:111122223333:certificate-authority/ca",
		ValidityDays:      365,
		SigningAlgorithm:  pki.DefaultSigningAlgorithm,
		TemplateARN:       pki.DefaultTemplateARN,
		PollDelay:         time.Second,
		PollMaxAttempts:   10,
	}
}

func noAWS() (aws.Config, error) {
	return aws.Config{}, errors.New("aws must not be loaded")
}

func TestCAFlags_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(f *CAFlags)
		expectErr bool
	}{
		{name: "acmpca", modify: func(f *CAFlags) {}},
		{name: "acmpca missing arn", modify: func(f *CAFlags) { f.IntermediateCAARN = "" }, expectErr: true},
		{name: "file", modify: func(f *CAFlags) { f.Backend = "file"; f.CAKey = "ca.key"; f.CACert = "ca.crt" }},
		{name: "file missing key", modify: func(f *CAFlags) { f.Backend = "file"; f.CACert = "ca.crt" }, expectErr: true},
		{name: "kms", modify: func(f *CAFlags) { f.Backend = "kms"; f.KMSKeyID = "alias/ca"; f.CACert = "ca.crt" }},
		{name: "kms missing cert", modify: func(f *CAFlags) { f.Backend = "kms"; f.KMSKeyID = "alias/ca" }, expectErr: true},
		{name: "zero validity", modify: func(f *CAFlags) { f.ValidityDays = 0 }, expectErr: true},
		{name: "zero attempts", modify: func(f *CAFlags) { f.PollMaxAttempts = 0 }, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := defaultCAFlags()
			tt.modify(&flags)

			err := flags.Validate()
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCAFlags_signingParameters(t *testing.T) {
	flags := defaultCAFlags()
	flags.ValidityDays = 90

	require.Equal(t, pki.SigningParameters{
		AuthorityID:      "arn:aws:acm-pca:us-east-1:111122223333:certificate-authority/ca",
		SigningAlgorithm: "SHA384WITHECDSA",
		Validity:         pki.Validity{Value: 90, Unit: pki.ValidityDays},
		TemplateID:       "arn:aws:acm-pca:::template/EndEntityCertificate/V1",
	}, flags.signingParameters())

	require.Equal(t, enroll.PollPolicy{Delay: time.Second, MaxAttempts: 10}, flags.pollPolicy())
}

func TestNewEnrollService_fileBackend(t *testing.T) {
	ca := pkitest.NewCA(t, "Local Dev CA")

	dir := t.TempDir()
	keyPath := filepath.Join(dir, "ca.key")
	certPath := filepath.Join(dir, "ca.crt")
	require.NoError(t, os.WriteFile(keyPath, ca.KeyPEM, 0o600))
	require.NoError(t, os.WriteFile(certPath, ca.CertPEM, 0o600))

	flags := defaultCAFlags()
	flags.Backend = "file"
	flags.CAKey = keyPath
	flags.CACert = certPath
	flags.PollDelay = 0

	svc, err := newEnrollService(context.Background(), flags, noAWS)
	require.NoError(t, err)

	resp, err := svc.Enroll(context.Background(), enroll.Request{Body: pkitest.NewCSR(t, "dev.example.com"), HasBody: true})
	require.NoError(t, err)
	require.Equal(t, string(ca.CertPEM), resp.IntermediateCert)
}

func TestNewEnrollService_invalidFlags(t *testing.T) {
	flags := defaultCAFlags()
	flags.IntermediateCAARN = ""

	_, err := newEnrollService(context.Background(), flags, noAWS)
	require.ErrorContains(t, err, "intermediate CA ARN is required")
}

func TestNewRootService_fileStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pki"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pki", "rootCA.crt"), []byte("ROOT"), 0o600))

	svc, err := newRootService(RootStoreFlags{Store: "file", Bucket: "pki", Dir: dir}, "", noAWS)
	require.NoError(t, err)

	data, err := svc.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ROOT", string(data))
}

func TestRootStoreFlags_Validate(t *testing.T) {
	require.Error(t, (&RootStoreFlags{Store: "s3"}).Validate())
	require.NoError(t, (&RootStoreFlags{Store: "s3", Bucket: "pki"}).Validate())
	require.NoError(t, (&RootStoreFlags{Store: "file"}).Validate())
}

func TestNewRootService_awsError(t *testing.T) {
	_, err := newRootService(RootStoreFlags{Store: "s3", Bucket: "pki"}, "", noAWS)
	require.ErrorContains(t, err, "aws must not be loaded")
}
