package pki

import (
	"crypto/x509"
	"fmt"
	"strings"
	"time"
)

// CSRPEMHeader is the marker line every PEM encoded CSR starts with.
const CSRPEMHeader = "-----BEGIN CERTIFICATE REQUEST-----"

// Defaults for SigningParameters.
const (
	DefaultSigningAlgorithm = "SHA384WITHECDSA"
	DefaultTemplateARN      = "arn:aws:acm-pca:::template/EndEntityCertificate/V1"
	DefaultValidityDays     = 365
)

// ValidityUnit is the unit of a validity period.
type ValidityUnit string

const (
	ValidityDays   ValidityUnit = "DAYS"
	ValidityMonths ValidityUnit = "MONTHS"
	ValidityYears  ValidityUnit = "YEARS"
)

// Validity is a certificate validity period.
type Validity struct {
	Value int64
	Unit  ValidityUnit
}

// After returns the time at which a certificate issued at t with this validity expires.
func (v Validity) After(t time.Time) (time.Time, error) {
	n := int(v.Value)
	switch v.Unit {
	case ValidityDays:
		return t.AddDate(0, 0, n), nil
	case ValidityMonths:
		return t.AddDate(0, n, 0), nil
	case ValidityYears:
		return t.AddDate(n, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported validity unit %q", v.Unit)
	}
}

// SigningParameters are the per deployment settings sent with every issuance.
type SigningParameters struct {
	AuthorityID      string
	SigningAlgorithm string
	Validity         Validity
	TemplateID       string
}

// DefaultSigningParameters returns parameters for authorityID using the
// deployment defaults and the given validity in days.
func DefaultSigningParameters(authorityID string, validityDays int64) SigningParameters {
	return SigningParameters{
		AuthorityID:      authorityID,
		SigningAlgorithm: DefaultSigningAlgorithm,
		Validity:         Validity{Value: validityDays, Unit: ValidityDays},
		TemplateID:       DefaultTemplateARN,
	}
}

// HasCSRHeader reports whether text, once surrounding whitespace is trimmed,
// starts with the PEM CSR header. It does not parse the request.
func HasCSRHeader(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), CSRPEMHeader)
}

// signatureAlgorithm maps a backend signing algorithm name onto x509.
func signatureAlgorithm(name string) (x509.SignatureAlgorithm, error) {
	switch strings.ToUpper(name) {
	case "SHA256WITHECDSA":
		return x509.ECDSAWithSHA256, nil
	case "SHA384WITHECDSA":
		return x509.ECDSAWithSHA384, nil
	case "SHA512WITHECDSA":
		return x509.ECDSAWithSHA512, nil
	case "SHA256WITHRSA":
		return x509.SHA256WithRSA, nil
	case "SHA384WITHRSA":
		return x509.SHA384WithRSA, nil
	case "SHA512WITHRSA":
		return x509.SHA512WithRSA, nil
	default:
		return x509.UnknownSignatureAlgorithm, fmt.Errorf("unsupported signing algorithm %q", name)
	}
}
