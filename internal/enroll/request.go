package enroll

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/wolfeidau/certenroll/internal/apierr"
	"github.com/wolfeidau/certenroll/internal/pki"
)

// Request is a single enrollment request as delivered by the transport.
type Request struct {
	// Body is the raw request body.
	Body []byte
	// HasBody is false when the transport delivered no body at all.
	HasBody bool
	// Base64Encoded is set when the transport base64 encoded the body.
	Base64Encoded bool
	// ContentType is informational only.
	ContentType string
}

// csrFromRequest extracts the CSR text from req and checks its PEM header.
// No backend is contacted.
func csrFromRequest(req Request) (string, error) {
	if !req.HasBody {
		return "", apierr.New(apierr.Validation, "Missing request body")
	}

	body := req.Body
	if req.Base64Encoded {
		decoded, err := decodeBase64(body)
		if err != nil {
			return "", apierr.Wrap(apierr.Validation, err, "Invalid base64 request body")
		}
		body = decoded
	}

	if !utf8.Valid(body) {
		return "", apierr.New(apierr.Validation, "Request body is not valid UTF-8")
	}

	csr := string(body)
	if !pki.HasCSRHeader(csr) {
		return "", apierr.New(apierr.Validation, "Invalid CSR format. Expected PEM-encoded CSR.")
	}

	return csr, nil
}

// decodeBase64 decodes standard base64, ignoring embedded whitespace and line breaks.
func decodeBase64(data []byte) ([]byte, error) {
	compact := strings.Join(strings.Fields(string(bytes.TrimSpace(data))), "")
	return base64.StdEncoding.DecodeString(compact)
}
