// Package servertls loads the certificate material for the HTTPS listener from
// local files or SSM Parameter Store.
package servertls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// ErrIncompleteConfig is returned when only one of the certificate and key is configured.
var ErrIncompleteConfig = errors.New("both a certificate and a key are required for TLS")

// ParameterReader reads a named parameter, see objectstore.SSMStore.
type ParameterReader interface {
	GetParameter(ctx context.Context, name string) ([]byte, error)
}

// Config names where the material lives. SSM parameters take precedence over
// files. ClientCA is optional, when set clients must present a certificate
// issued by it.
type Config struct {
	CertFile     string
	KeyFile      string
	ClientCAFile string

	CertParam     string
	KeyParam      string
	ClientCAParam string
}

// Enabled reports whether any server certificate source is configured.
func (c Config) Enabled() bool {
	return c.CertFile != "" || c.KeyFile != "" || c.CertParam != "" || c.KeyParam != ""
}

func (c Config) fromSSM() bool {
	return c.CertParam != "" || c.KeyParam != ""
}

// Certificates holds PEM encoded material in memory.
type Certificates struct {
	ServerCert []byte
	ServerKey  []byte
	ClientCA   []byte
}

// Load reads the material described by cfg. params is only used when SSM
// parameters are configured.
func Load(ctx context.Context, cfg Config, params ParameterReader) (*Certificates, error) {
	if cfg.fromSSM() {
		if cfg.CertParam == "" || cfg.KeyParam == "" {
			return nil, ErrIncompleteConfig
		}
		if params == nil {
			return nil, errors.New("no SSM client configured")
		}
		return loadFromSSM(ctx, cfg, params)
	}

	if cfg.CertFile == "" || cfg.KeyFile == "" {
		return nil, ErrIncompleteConfig
	}
	return loadFromFiles(cfg)
}

func loadFromSSM(ctx context.Context, cfg Config, params ParameterReader) (*Certificates, error) {
	certs := &Certificates{}

	var err error
	if certs.ServerCert, err = params.GetParameter(ctx, cfg.CertParam); err != nil {
		return nil, fmt.Errorf("failed to load server cert from SSM: %w", err)
	}

	if certs.ServerKey, err = params.GetParameter(ctx, cfg.KeyParam); err != nil {
		return nil, fmt.Errorf("failed to load server key from SSM: %w", err)
	}

	if cfg.ClientCAParam != "" {
		if certs.ClientCA, err = params.GetParameter(ctx, cfg.ClientCAParam); err != nil {
			return nil, fmt.Errorf("failed to load client CA from SSM: %w", err)
		}
	}

	return certs, nil
}

func loadFromFiles(cfg Config) (*Certificates, error) {
	certs := &Certificates{}

	var err error
	if certs.ServerCert, err = os.ReadFile(cfg.CertFile); err != nil {
		return nil, fmt.Errorf("failed to read server cert: %w", err)
	}

	if certs.ServerKey, err = os.ReadFile(cfg.KeyFile); err != nil {
		return nil, fmt.Errorf("failed to read server key: %w", err)
	}

	if cfg.ClientCAFile != "" {
		if certs.ClientCA, err = os.ReadFile(cfg.ClientCAFile); err != nil {
			return nil, fmt.Errorf("failed to read client CA: %w", err)
		}
	}

	return certs, nil
}

// TLSConfig builds the listener configuration.
func (c *Certificates) TLSConfig() (*tls.Config, error) {
	serverCert, err := tls.X509KeyPair(c.ServerCert, c.ServerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		MinVersion:   tls.VersionTLS12,
	}

	if len(c.ClientCA) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(c.ClientCA) {
			return nil, errors.New("failed to parse client CA certificate")
		}
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = pool
	}

	return cfg, nil
}
