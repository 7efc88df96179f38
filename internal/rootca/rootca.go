// Package rootca serves the root CA certificate that subscribers need to build
// a complete trust chain.
package rootca

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/certenroll/internal/apierr"
	"github.com/wolfeidau/certenroll/internal/objectstore"
	"github.com/wolfeidau/certenroll/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// ObjectKey is the fixed key of the root certificate within its bucket.
	ObjectKey = "rootCA.crt"

	// ContentType is the media type the certificate is served with.
	ContentType = "application/x-pem-file"
)

// ContentDisposition suggests the file name a client should save the certificate as.
const ContentDisposition = `attachment; filename="` + ObjectKey + `"`

const notFoundMessage = "Root CA certificate not found. Please upload it to S3."

// Service reads the root certificate from an object store.
type Service struct {
	store   objectstore.Store
	bucket  string
	metrics *telemetry.Metrics
}

// NewService creates a Service reading ObjectKey from bucket.
func NewService(store objectstore.Store, bucket string) *Service {
	return &Service{
		store:   store,
		bucket:  bucket,
		metrics: telemetry.GetMetrics(),
	}
}

// Fetch returns the stored certificate bytes unchanged. Every returned error is
// an *apierr.Error.
func (s *Service) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.store.GetObject(ctx, s.bucket, ObjectKey)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, objectstore.ErrNotFound):
		outcome = apierr.NotFound.String()
		err = apierr.Wrap(apierr.NotFound, err, notFoundMessage)
	default:
		outcome = apierr.Internal.String()
		err = apierr.Detailed(apierr.Internal, err)
	}

	s.metrics.RootCertificateRequestsTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))

	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("bucket", s.bucket).Str("key", ObjectKey).Msg("failed to read root certificate")
		return nil, err
	}

	return data, nil
}
