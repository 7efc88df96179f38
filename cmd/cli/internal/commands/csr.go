package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/certenroll/internal/pki"
)

// CSRCmd generates a private key and certificate signing request.
type CSRCmd struct {
	CommonName   string   `arg:"" help:"subject common name (e.g., device-01.example.com)"`
	Organization string   `help:"subject organization"`
	DNS          []string `help:"DNS subject alternative names (defaults to the common name)"`
	Name         string   `help:"base file name for the key and CSR (defaults to the common name)"`
	OutputDir    string   `help:"output directory" default:"." type:"path"`
	Force        bool     `help:"overwrite existing files" default:"false"`
}

func (c *CSRCmd) Run(ctx context.Context, globals *Globals) error {
	name := c.Name
	if name == "" {
		name = c.CommonName
	}

	keyPEM, csrPEM, err := pki.NewKeyAndCSR(pki.RequestTemplate{
		CommonName:   c.CommonName,
		Organization: c.Organization,
		DNSNames:     c.DNS,
	})
	if err != nil {
		return err
	}

	keyPath, err := writeFile(c.OutputDir, name+".key", keyPEM, 0o600, c.Force)
	if err != nil {
		if errors.Is(err, ErrFileExists) {
			return fmt.Errorf("%w\n\nTo replace the key pass --force", err)
		}
		return err
	}

	csrPath, err := writeFile(c.OutputDir, name+".csr", csrPEM, 0o644, c.Force)
	if err != nil {
		return err
	}

	fmt.Printf("Private key: %s\n", keyPath)
	fmt.Printf("CSR:         %s\n", csrPath)
	fmt.Println()
	fmt.Printf("To enroll: certenroll-cli enroll %s\n", csrPath)

	return nil
}
