package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/certenroll/internal/bootstrap"
	chttp "github.com/wolfeidau/certenroll/internal/http"
	"github.com/wolfeidau/certenroll/internal/logger"
	"github.com/wolfeidau/certenroll/internal/objectstore"
	"github.com/wolfeidau/certenroll/internal/server"
	"github.com/wolfeidau/certenroll/internal/servertls"
	"github.com/wolfeidau/certenroll/internal/telemetry"
)

type ServeCmd struct {
	// Server configuration
	Listen          string        `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"CERTENROLL_LISTEN"`
	ShutdownTimeout time.Duration `help:"graceful shutdown timeout" default:"15s" env:"CERTENROLL_SHUTDOWN_TIMEOUT"`
	TLS             TLSFlags      `embed:"" prefix:"tls-"`

	// Operational modes
	Development          bool    `help:"development mode - create the root CA bucket in LocalStack" default:"false" env:"CERTENROLL_DEVELOPMENT"`
	DevelopmentClean     bool    `help:"remove the published root certificate on startup in development mode" default:"false" env:"CERTENROLL_DEVELOPMENT_CLEAN"`
	DevelopmentRoot      string  `help:"root certificate to publish in development mode" default:"" type:"path" env:"CERTENROLL_DEVELOPMENT_ROOT"`
	Tracing              bool    `help:"enable tracing" default:"false" env:"CERTENROLL_TRACING"`
	TraceSampleRatio     float64 `help:"fraction of traces sampled" default:"1" env:"CERTENROLL_TRACE_SAMPLE_RATIO"`
	RedactInternalErrors bool    `help:"hide internal error detail from clients" default:"false" env:"CERTENROLL_REDACT_INTERNAL_ERRORS"`

	CA   CAFlags        `embed:""`
	Root RootStoreFlags `embed:""`
	AWS  AWSFlags       `embed:"" prefix:"aws-"`
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Str("ca_backend", c.CA.Backend).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "certenroll-server",
			Version:     globals.Version,
			SampleRatio: c.TraceSampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	loadAWS := newAWSLoader(ctx, c.AWS)

	if c.Development {
		if err := c.bootstrapDevelopment(ctx, loadAWS); err != nil {
			return err
		}
	}

	enrollSvc, err := newEnrollService(ctx, c.CA, loadAWS)
	if err != nil {
		return err
	}

	rootSvc, err := newRootService(c.Root, c.AWS.Endpoint, loadAWS)
	if err != nil {
		return err
	}

	srv := server.New(enrollSvc, rootSvc, server.Options{RedactInternalErrors: c.RedactInternalErrors})

	handler := srv.Handler()
	if c.Tracing {
		handler = telemetry.InstrumentHandler(handler, "certenroll")
	}
	handler = chttp.Chain(handler,
		chttp.RequestIDMiddleware(),
		chttp.ClientIPMiddleware(),
		logger.Requests(log),
	)

	httpServer := configureHTTPServer(c.Listen, handler)

	tlsCfg := c.TLS.config()
	if tlsCfg.Enabled() {
		var params servertls.ParameterReader
		if tlsCfg.CertParam != "" {
			awsCfg, err := loadAWS()
			if err != nil {
				return err
			}
			params = objectstore.NewSSMStoreFromConfig(awsCfg, c.AWS.Endpoint)
		}

		certs, err := servertls.Load(ctx, tlsCfg, params)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates: %w", err)
		}

		httpServer.TLSConfig, err = certs.TLSConfig()
		if err != nil {
			return err
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", c.Listen).Bool("tls", httpServer.TLSConfig != nil).Msg("Listening")

		if httpServer.TLSConfig != nil {
			errCh <- httpServer.ListenAndServeTLS("", "")
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}

// bootstrapDevelopment prepares the LocalStack bucket the root endpoint reads.
func (c *ServeCmd) bootstrapDevelopment(ctx context.Context, loadAWS awsLoader) error {
	log := zerolog.Ctx(ctx)

	if c.Root.Store != "s3" {
		log.Info().Str("root_store", c.Root.Store).Msg("Development bootstrap only applies to the s3 root store, skipping")
		return nil
	}

	awsCfg, err := loadAWS()
	if err != nil {
		return err
	}

	var rootCert []byte
	if c.DevelopmentRoot != "" {
		if rootCert, err = os.ReadFile(c.DevelopmentRoot); err != nil {
			return fmt.Errorf("failed to read development root certificate: %w", err)
		}
	}

	res, err := bootstrap.Bootstrap(ctx, bootstrap.Config{
		S3Client:        objectstore.NewS3Client(awsCfg, c.AWS.Endpoint),
		Bucket:          c.Root.Bucket,
		RootCertificate: rootCert,
		CleanResources:  c.DevelopmentClean,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap development resources: %w", err)
	}

	log.Info().Str("bucket", res.Bucket).Bool("root_published", res.RootPublished).Msg("Development resources ready")
	return nil
}
