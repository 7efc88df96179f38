// Package server exposes the enrollment and root certificate services over
// HTTP and as API Gateway Lambda handlers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/wolfeidau/certenroll/internal/apierr"
	"github.com/wolfeidau/certenroll/internal/enroll"
	chttp "github.com/wolfeidau/certenroll/internal/http"
	"github.com/wolfeidau/certenroll/internal/rootca"
)

// rootCacheControl lets clients reuse the root certificate for five minutes.
const rootCacheControl = "public, max-age=300"

// MaxBodyBytes bounds the size of an enrollment request body.
const MaxBodyBytes = 64 * 1024

// Enroller issues certificates for CSRs.
type Enroller interface {
	Enroll(ctx context.Context, req enroll.Request) (*enroll.Response, error)
}

// RootFetcher returns the root CA certificate.
type RootFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Options configures a Server.
type Options struct {
	// RedactInternalErrors replaces the message of server side failures with a
	// generic one. The full error is still logged.
	RedactInternalErrors bool
}

// Response is a transport neutral HTTP response.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

// Server routes requests to the enrollment and root certificate services.
// Either service may be nil, its routes are then not served.
type Server struct {
	enroller Enroller
	root     RootFetcher
	opts     Options
}

// New creates a Server.
func New(enroller Enroller, root RootFetcher, opts Options) *Server {
	return &Server{
		enroller: enroller,
		root:     root,
		opts:     opts,
	}
}

// Enroll handles an enrollment request. Method routing is left to the caller.
func (s *Server) Enroll(ctx context.Context, req enroll.Request) Response {
	resp, err := s.enroller.Enroll(ctx, req)
	if err != nil {
		return s.errorResponse(err)
	}

	return jsonResponse(http.StatusOK, resp)
}

// RootCA handles a root certificate request.
func (s *Server) RootCA(ctx context.Context) Response {
	data, err := s.root.Fetch(ctx)
	if err != nil {
		return s.errorResponse(err)
	}

	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type":        rootca.ContentType,
			"Content-Disposition": rootca.ContentDisposition,
			"Cache-Control":       rootCacheControl,
		},
		Body: data,
	}
}

// Handler returns the HTTP handler serving every configured route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet, http.MethodHead) {
			return
		}
		_ = chttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.enroller != nil {
		mux.HandleFunc("/enroll", s.serveEnroll)
	}

	if s.root != nil {
		rootHandler := func(w http.ResponseWriter, r *http.Request) {
			if !allowMethod(w, r, http.MethodGet, http.MethodHead) {
				return
			}
			writeResponse(w, s.RootCA(r.Context()))
		}
		mux.HandleFunc("/root-ca", rootHandler)
		mux.HandleFunc("/"+rootca.ObjectKey, rootHandler)
	}

	return mux
}

func (s *Server) serveEnroll(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			chttp.WriteError(w, apierr.Wrap(apierr.Validation, err, "Request body too large"), s.opts.RedactInternalErrors)
			return
		}
		chttp.WriteError(w, apierr.Wrap(apierr.Validation, err, "Unable to read request body"), s.opts.RedactInternalErrors)
		return
	}

	req := enroll.Request{
		Body:          body,
		HasBody:       len(body) > 0,
		Base64Encoded: isBase64Body(r),
		ContentType:   r.Header.Get("Content-Type"),
	}

	writeResponse(w, s.Enroll(r.Context(), req))
}

// allowMethod writes a 405 and reports false when r.Method is not one of methods.
func allowMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	if slices.Contains(methods, r.Method) {
		return true
	}

	w.Header().Set("Allow", strings.Join(methods, ", "))
	_ = chttp.WriteJSON(w, http.StatusMethodNotAllowed, chttp.ErrorBody{Error: "Method not allowed"})
	return false
}

func isBase64Body(r *http.Request) bool {
	if r.Header.Get("Content-Transfer-Encoding") == "base64" {
		return true
	}
	return r.Header.Get("Content-Type") == "application/base64"
}

func (s *Server) errorResponse(err error) Response {
	status, body := chttp.EncodeError(err, s.opts.RedactInternalErrors)

	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": chttp.ContentTypeJSON},
		Body:       body,
	}
}

func jsonResponse(status int, v any) Response {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal error"}`)
	}

	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": chttp.ContentTypeJSON},
		Body:       body,
	}
}

func writeResponse(w http.ResponseWriter, resp Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
