package commands

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/wolfeidau/certenroll/internal/logger"
	"github.com/wolfeidau/certenroll/internal/server"
)

// EnrollLambdaCmd runs the enrollment endpoint behind API Gateway.
type EnrollLambdaCmd struct {
	RedactInternalErrors bool `help:"hide internal error detail from clients" default:"false" env:"CERTENROLL_REDACT_INTERNAL_ERRORS"`

	CA  CAFlags  `embed:""`
	AWS AWSFlags `embed:"" prefix:"aws-"`
}

func (c *EnrollLambdaCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	enrollSvc, err := newEnrollService(ctx, c.CA, newAWSLoader(ctx, c.AWS))
	if err != nil {
		return err
	}

	srv := server.New(enrollSvc, nil, server.Options{RedactInternalErrors: c.RedactInternalErrors})

	log.Info().Str("version", globals.Version).Str("ca_backend", c.CA.Backend).Msg("Starting enrollment lambda")
	lambda.StartWithOptions(srv.EnrollLambda(log), lambda.WithContext(ctx))

	return nil
}

// RootLambdaCmd runs the root certificate endpoint behind API Gateway.
type RootLambdaCmd struct {
	Root RootStoreFlags `embed:""`
	AWS  AWSFlags       `embed:"" prefix:"aws-"`
}

func (c *RootLambdaCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	rootSvc, err := newRootService(c.Root, c.AWS.Endpoint, newAWSLoader(ctx, c.AWS))
	if err != nil {
		return err
	}

	srv := server.New(nil, rootSvc, server.Options{})

	log.Info().Str("version", globals.Version).Str("root_store", c.Root.Store).Msg("Starting root certificate lambda")
	lambda.StartWithOptions(srv.RootCALambda(log), lambda.WithContext(ctx))

	return nil
}
