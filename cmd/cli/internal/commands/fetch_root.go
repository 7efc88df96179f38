package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wolfeidau/certenroll/internal/logger"
)

// FetchRootCmd downloads the root CA certificate.
type FetchRootCmd struct {
	Output string `help:"output file" default:"rootCA.crt" type:"path"`

	Client ClientFlags `embed:""`
}

func (c *FetchRootCmd) Run(ctx context.Context, globals *Globals) error {
	ctx = logger.Setup(globals.Debug).WithContext(ctx)

	data, err := c.Client.client().FetchRoot(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch root certificate: %w", err)
	}

	if _, err := writeFile(filepath.Dir(c.Output), filepath.Base(c.Output), data, 0o644, true); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Root certificate: %s\n", c.Output)
	return nil
}
