package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/certenroll/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		CSR         commands.CSRCmd         `cmd:"" name:"csr" help:"Generate a private key and CSR"`
		Enroll      commands.EnrollCmd      `cmd:"" help:"Submit a CSR and save the issued certificate"`
		FetchRoot   commands.FetchRootCmd   `cmd:"" name:"fetch-root" help:"Download the root CA certificate"`
		PublishRoot commands.PublishRootCmd `cmd:"" name:"publish-root" help:"Upload the root CA certificate to its store"`
		Debug       bool                    `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
