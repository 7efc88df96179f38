package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnroll(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/enroll", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		require.Equal(t, "csr", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"subscriber_cert":"LEAF","intermediate_cert":"INT","certificate_chain":"LEAF\nINT","certificate_arn":"arn:1","expires_at":"2026-01-01T00:00:00.000000Z"}`))
	}))
	defer ts.Close()

	resp, err := New(Config{ServerURL: ts.URL + "/", Timeout: time.Second}).Enroll(context.Background(), []byte("csr"))
	require.NoError(t, err)
	require.Equal(t, "LEAF", resp.SubscriberCert)
	require.Equal(t, "LEAF\nINT", resp.CertificateChain)
	require.Equal(t, "arn:1", resp.CertificateARN)
}

func TestEnroll_errorResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid CSR format. Expected PEM-encoded CSR."}`))
	}))
	defer ts.Close()

	_, err := New(Config{ServerURL: ts.URL}).Enroll(context.Background(), []byte("nope"))

	var respErr *ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Equal(t, http.StatusBadRequest, respErr.StatusCode)
	require.Equal(t, "Invalid CSR format. Expected PEM-encoded CSR.", respErr.Message)
}

func TestFetchRoot_cached(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/x-pem-file")
		w.Header().Set("Cache-Control", "public, max-age=300")
		_, _ = w.Write([]byte("ROOT"))
	}))
	defer ts.Close()

	c := New(Config{ServerURL: ts.URL, CacheDir: t.TempDir()})

	for range 3 {
		data, err := c.FetchRoot(context.Background())
		require.NoError(t, err)
		require.Equal(t, "ROOT", string(data))
	}

	require.Equal(t, int32(1), hits.Load())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "http://localhost:8080", cfg.ServerURL)
	require.Equal(t, time.Minute, cfg.Timeout)
}

func TestFetchRoot_notFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Root CA certificate not found. Please upload it to S3."}`))
	}))
	defer ts.Close()

	_, err := New(Config{ServerURL: ts.URL}).FetchRoot(context.Background())
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Equal(t, http.StatusNotFound, respErr.StatusCode)
}
