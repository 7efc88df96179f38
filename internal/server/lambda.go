package server

import (
	"context"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/certenroll/internal/enroll"
	chttp "github.com/wolfeidau/certenroll/internal/http"
)

// LambdaHandler handles an API Gateway proxy integration event.
type LambdaHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// EnrollLambda returns the Lambda entry point for enrollment.
func (s *Server) EnrollLambda(log zerolog.Logger) LambdaHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		ctx = lambdaContext(ctx, log, req)

		resp := s.Enroll(ctx, enroll.Request{
			Body:          []byte(req.Body),
			HasBody:       req.Body != "",
			Base64Encoded: req.IsBase64Encoded,
			ContentType:   headerValue(req.Headers, "Content-Type"),
		})

		return proxyResponse(ctx, resp), nil
	}
}

// RootCALambda returns the Lambda entry point for the root certificate.
func (s *Server) RootCALambda(log zerolog.Logger) LambdaHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		ctx = lambdaContext(ctx, log, req)

		return proxyResponse(ctx, s.RootCA(ctx)), nil
	}
}

// lambdaContext attaches the API Gateway request id and a request scoped logger.
func lambdaContext(ctx context.Context, log zerolog.Logger, req events.APIGatewayProxyRequest) context.Context {
	if req.RequestContext.RequestID != "" {
		ctx = chttp.WithRequestID(ctx, req.RequestContext.RequestID)
	}

	lc := log.With().
		Str("request_id", req.RequestContext.RequestID).
		Str("client_ip", req.RequestContext.Identity.SourceIP).
		Str("method", req.HTTPMethod).
		Str("path", req.Path)

	if lctx, ok := lambdacontext.FromContext(ctx); ok {
		lc = lc.Str("aws_request_id", lctx.AwsRequestID)
	}

	return lc.Logger().WithContext(ctx)
}

// proxyResponse converts resp. Bodies that are not valid UTF-8 are base64
// encoded as API Gateway requires.
func proxyResponse(ctx context.Context, resp Response) events.APIGatewayProxyResponse {
	out := events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	}

	if requestID := chttp.RequestIDFromContext(ctx); requestID != "" {
		out.Headers[chttp.RequestIDHeader] = requestID
	}

	if utf8.Valid(resp.Body) {
		out.Body = string(resp.Body)
	} else {
		out.Body = base64.StdEncoding.EncodeToString(resp.Body)
		out.IsBase64Encoded = true
	}

	zerolog.Ctx(ctx).Info().Int("status", resp.StatusCode).Msg("lambda request")

	return out
}

// headerValue looks up name ignoring case, API Gateway passes headers as sent.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
