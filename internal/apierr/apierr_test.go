package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: New(Validation, "bad body"), expected: http.StatusBadRequest},
		{name: "rejected", err: Wrap(Rejected, cause, "Malformed CSR"), expected: http.StatusBadRequest},
		{name: "not found", err: New(NotFound, "missing"), expected: http.StatusNotFound},
		{name: "timeout", err: New(Timeout, "slow"), expected: http.StatusInternalServerError},
		{name: "backend", err: Detailed(Backend, cause), expected: http.StatusInternalServerError},
		{name: "internal", err: Detailed(Internal, cause), expected: http.StatusInternalServerError},
		{name: "unclassified", err: cause, expected: http.StatusInternalServerError},
		{name: "wrapped classified", err: fmt.Errorf("outer: %w", New(Validation, "bad")), expected: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, StatusCode(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	require.Equal(t, "Missing request body", Message(New(Validation, "Missing request body")))
	require.Equal(t, "Internal error: boom", Message(errors.New("boom")))
	require.Equal(t, "Internal error: boom", Message(Detailed(Backend, errors.New("boom"))))
}

func TestRedacted(t *testing.T) {
	require.Equal(t, "Missing request body", Redacted(New(Validation, "Missing request body")))
	require.Equal(t, "Internal error", Redacted(Detailed(Backend, errors.New("secret detail"))))
	require.Equal(t, "Internal error", Redacted(errors.New("secret detail")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(Backend, cause, "fetch failed")

	require.ErrorIs(t, err, cause)
	require.Equal(t, "fetch failed: root cause", err.Error())
	require.Equal(t, Backend, KindOf(err))
	require.Equal(t, "backend", KindOf(err).String())
}
