// Package enroll drives certificate enrollment: it validates a CSR, submits it
// to a signing backend, waits for issuance and assembles the certificate chain.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/certenroll/internal/apierr"
	"github.com/wolfeidau/certenroll/internal/pki"
	"github.com/wolfeidau/certenroll/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Config holds the immutable settings of a Service.
type Config struct {
	Params pki.SigningParameters
	Poll   PollPolicy

	// Now returns the current time, defaults to time.Now.
	Now func() time.Time
}

// Service handles enrollment requests. It holds no per request state and is
// safe for concurrent use.
type Service struct {
	authority pki.CertificateAuthority
	params    pki.SigningParameters
	poll      PollPolicy
	now       func() time.Time
	metrics   *telemetry.Metrics
}

// NewService creates a Service issuing certificates from authority.
func NewService(authority pki.CertificateAuthority, cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		authority: authority,
		params:    cfg.Params,
		poll:      cfg.Poll,
		now:       now,
		metrics:   telemetry.GetMetrics(),
	}
}

// Enroll signs the CSR carried by req. Every returned error is an *apierr.Error.
func (s *Service) Enroll(ctx context.Context, req Request) (*Response, error) {
	started := time.Now()

	bundle, err := s.enroll(ctx, req)

	kind := "ok"
	if err != nil {
		kind = apierr.KindOf(err).String()
	}
	attrs := metric.WithAttributes(attribute.String("outcome", kind))
	s.metrics.EnrollmentsTotal.Add(ctx, 1, attrs)
	s.metrics.EnrollmentDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	if err != nil {
		logFailure(ctx, err)
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("certificate_arn", bundle.Handle).
		Dur("duration", time.Since(started)).
		Msg("certificate issued")

	return bundle.Response(), nil
}

func (s *Service) enroll(ctx context.Context, req Request) (*Bundle, error) {
	csr, err := csrFromRequest(req)
	if err != nil {
		return nil, err
	}

	handle, err := s.authority.IssueCertificate(ctx, []byte(csr), s.params)
	if err != nil {
		return nil, classifyIssueError(err)
	}

	zerolog.Ctx(ctx).Debug().Str("certificate_arn", handle).Msg("certificate requested")

	attempts, err := waitUntilIssued(ctx, s.authority, handle, s.poll)
	s.metrics.IssuancePollAttempts.Record(ctx, int64(attempts))
	if err != nil {
		switch {
		case errors.Is(err, errPollBudgetExhausted):
			return nil, apierr.Wrap(apierr.Timeout, err,
				fmt.Sprintf("Internal error: certificate %s was not issued after %d attempts", handle, attempts))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, apierr.Detailed(apierr.Internal, err)
		default:
			return nil, apierr.Detailed(apierr.Backend, err)
		}
	}

	leaf, chain, err := s.authority.GetCertificate(ctx, handle)
	if err != nil {
		return nil, apierr.Detailed(apierr.Backend, err)
	}

	authorityCert, err := s.authority.GetAuthorityCertificate(ctx)
	if err != nil {
		return nil, apierr.Detailed(apierr.Backend, err)
	}

	expiresAt, err := s.params.Validity.After(s.now().UTC())
	if err != nil {
		return nil, apierr.Detailed(apierr.Internal, err)
	}

	return &Bundle{
		Leaf:      leaf,
		Chain:     chain,
		Authority: authorityCert,
		Handle:    handle,
		ExpiresAt: expiresAt,
	}, nil
}

// classifyIssueError maps submission failures. Only backend rejections of the
// CSR or its arguments are client errors.
func classifyIssueError(err error) error {
	switch {
	case errors.Is(err, pki.ErrMalformedCSR):
		return apierr.Wrap(apierr.Rejected, err, "Malformed CSR. Please check CSR format and signature.")
	case errors.Is(err, pki.ErrInvalidArgs):
		return apierr.Wrap(apierr.Rejected, err, fmt.Sprintf("Invalid arguments: %s", invalidArgsDetail(err)))
	default:
		return apierr.Detailed(apierr.Internal, err)
	}
}

// invalidArgsDetail strips the sentinel prefix so the caller sees the backend's message.
func invalidArgsDetail(err error) string {
	msg := err.Error()
	if _, detail, ok := strings.Cut(msg, pki.ErrInvalidArgs.Error()+": "); ok {
		return detail
	}
	return msg
}

func logFailure(ctx context.Context, err error) {
	logger := zerolog.Ctx(ctx)
	kind := apierr.KindOf(err)

	switch kind {
	case apierr.Validation, apierr.Rejected:
		logger.Warn().Err(err).Str("kind", kind.String()).Msg("enrollment rejected")
	default:
		logger.Error().Err(err).Str("kind", kind.String()).Msg("enrollment failed")
	}
}
