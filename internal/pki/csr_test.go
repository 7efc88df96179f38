package pki

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHasCSRHeader(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{name: "exact header", text: CSRPEMHeader + "\nMIIB\n-----END CERTIFICATE REQUEST-----\n", expected: true},
		{name: "leading whitespace", text: "\n\t  " + CSRPEMHeader + "\n", expected: true},
		{name: "certificate instead of csr", text: "-----BEGIN CERTIFICATE-----\n", expected: false},
		{name: "new csr header variant", text: "-----BEGIN NEW CERTIFICATE REQUEST-----\n", expected: false},
		{name: "empty", text: "", expected: false},
		{name: "text before header", text: "hello " + CSRPEMHeader, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, HasCSRHeader(tt.text))
		})
	}
}

func TestValidityAfter(t *testing.T) {
	start := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	got, err := Validity{Value: 365, Unit: ValidityDays}.After(start)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 1, 30, 12, 0, 0, 0, time.UTC), got)

	got, err = Validity{Value: 2, Unit: ValidityYears}.After(start)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC), got)

	_, err = Validity{Value: 1, Unit: "FORTNIGHTS"}.After(start)
	require.Error(t, err)
}

func TestDefaultSigningParameters(t *testing.T) {
	params := DefaultSigningParameters("arn:aws:acm-pca:us-east-1:111122223333:certificate-authority/abc", 90)

	require.Equal(t, "SHA384WITHECDSA", params.SigningAlgorithm)
	require.Equal(t, DefaultTemplateARN, params.TemplateID)
	require.Equal(t, Validity{Value: 90, Unit: ValidityDays}, params.Validity)
}
