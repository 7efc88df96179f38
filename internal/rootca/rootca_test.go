package rootca

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/certenroll/internal/apierr"
	"github.com/wolfeidau/certenroll/internal/objectstore"
)

type failingStore struct {
	err error
}

func (f failingStore) GetObject(context.Context, string, string) ([]byte, error) {
	return nil, f.err
}

func TestFetch_present(t *testing.T) {
	data := []byte("-----BEGIN CERTIFICATE-----\nROOT\n-----END CERTIFICATE-----\n\x00trailing")

	store := objectstore.NewMemoryStore()
	require.NoError(t, store.PutObject(context.Background(), "pki", ObjectKey, data, ContentType))

	got, err := NewService(store, "pki").Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestFetch_missing(t *testing.T) {
	store := objectstore.NewMemoryStore()
	require.NoError(t, store.PutObject(context.Background(), "other", ObjectKey, []byte("x"), ContentType))

	_, err := NewService(store, "pki").Fetch(context.Background())
	require.Equal(t, http.StatusNotFound, apierr.StatusCode(err))
	require.Equal(t, "Root CA certificate not found. Please upload it to S3.", apierr.Message(err))
	require.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestFetch_storeFailure(t *testing.T) {
	_, err := NewService(failingStore{err: errors.New("AccessDenied")}, "pki").Fetch(context.Background())
	require.Equal(t, http.StatusInternalServerError, apierr.StatusCode(err))
	require.Equal(t, "Internal error: AccessDenied", apierr.Message(err))
}
