package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/certenroll/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug        bool                     `help:"Enable debug mode."`
		Version      kong.VersionFlag
		Serve        commands.ServeCmd        `cmd:"" help:"Start the HTTP enrollment server"`
		EnrollLambda commands.EnrollLambdaCmd `cmd:"" name:"enroll-lambda" help:"Run the enrollment endpoint as a Lambda function"`
		RootLambda   commands.RootLambdaCmd   `cmd:"" name:"root-lambda" help:"Run the root certificate endpoint as a Lambda function"`
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
