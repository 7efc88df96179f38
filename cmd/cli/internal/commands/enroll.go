package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/certenroll/internal/logger"
)

// EnrollCmd submits a CSR and saves the issued certificate.
type EnrollCmd struct {
	CSR       string `arg:"" help:"path to a PEM encoded CSR" type:"existingfile"`
	Name      string `help:"base file name for the certificates (defaults to the CSR file name)"`
	OutputDir string `help:"output directory" default:"." type:"path"`
	Force     bool   `help:"overwrite existing files" default:"false"`

	Client ClientFlags `embed:""`
}

func (c *EnrollCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	csrPEM, err := os.ReadFile(c.CSR)
	if err != nil {
		return fmt.Errorf("failed to read CSR: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("server", c.Client.Server).Str("csr", c.CSR).Msg("submitting CSR")

	resp, err := c.Client.client().Enroll(ctx, csrPEM)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	name := c.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(c.CSR), filepath.Ext(c.CSR))
	}

	certPath, err := writeFile(c.OutputDir, name+".crt", []byte(resp.SubscriberCert), 0o644, c.Force)
	if err != nil {
		return err
	}

	chainPath, err := writeFile(c.OutputDir, name+"-chain.crt", []byte(resp.CertificateChain), 0o644, c.Force)
	if err != nil {
		return err
	}

	fmt.Printf("Certificate: %s\n", certPath)
	fmt.Printf("Full chain:  %s\n", chainPath)
	fmt.Printf("ARN:         %s\n", resp.CertificateARN)
	fmt.Printf("Expires:     %s\n", resp.ExpiresAt)

	return nil
}
