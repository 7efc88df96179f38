package enroll

import (
	"time"
)

// ExpiresAtLayout is the format of Response.ExpiresAt: UTC with microseconds.
const ExpiresAtLayout = "2006-01-02T15:04:05.000000Z"

// Bundle is the set of certificate artifacts produced by one enrollment.
type Bundle struct {
	Leaf      string
	Chain     string
	Authority string
	Handle    string
	ExpiresAt time.Time
}

// FullChain returns the leaf followed by the chain, newline joined.
func (b Bundle) FullChain() string {
	return b.Leaf + "\n" + b.Chain
}

// Response is the JSON body returned for a successful enrollment.
type Response struct {
	SubscriberCert   string `json:"subscriber_cert"`
	IntermediateCert string `json:"intermediate_cert"`
	CertificateChain string `json:"certificate_chain"`
	CertificateARN   string `json:"certificate_arn"`
	ExpiresAt        string `json:"expires_at"`
}

// Response converts the bundle into the response body.
func (b Bundle) Response() *Response {
	return &Response{
		SubscriberCert:   b.Leaf,
		IntermediateCert: b.Authority,
		CertificateChain: b.FullChain(),
		CertificateARN:   b.Handle,
		ExpiresAt:        b.ExpiresAt.UTC().Format(ExpiresAtLayout),
	}
}
