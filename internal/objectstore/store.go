// Package objectstore reads and publishes static objects such as the root CA
// certificate.
package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// Store reads objects by bucket and key.
type Store interface {
	// GetObject returns the object contents, or ErrNotFound when it is absent.
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Publisher writes objects.
type Publisher interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
}
