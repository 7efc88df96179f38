// Package client talks to the enrollment service over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfeidau/certenroll/internal/enroll"
	chttp "github.com/wolfeidau/certenroll/internal/http"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	CacheDir  string
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   time.Minute,
	}
}

// ResponseError is returned when the service answers with an error status.
type ResponseError struct {
	StatusCode int
	Message    string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client calls the enrollment and root certificate endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client.
func New(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newCachingTransport(cfg.CacheDir),
		},
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
	}
}

// Enroll submits a PEM encoded CSR.
func (c *Client) Enroll(ctx context.Context, csrPEM []byte) (*enroll.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/enroll", bytes.NewReader(csrPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-pem-file")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp enroll.Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode enrollment response: %w", err)
	}

	return &resp, nil
}

// FetchRoot downloads the root CA certificate.
func (c *Client) FetchRoot(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/root-ca", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		var errBody chttp.ErrorBody
		if json.Unmarshal(body, &errBody) != nil || errBody.Error == "" {
			errBody.Error = strings.TrimSpace(string(body))
		}
		return nil, &ResponseError{StatusCode: res.StatusCode, Message: errBody.Error}
	}

	return body, nil
}
