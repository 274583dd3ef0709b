package storage

import (
	"context"
	"errors"
)

// ObjectStore defines the object storage operations used to publish and
// fetch exercise index snapshots.
type ObjectStore interface {
	// PutObject uploads data under objectKey, replacing any existing object.
	PutObject(ctx context.Context, objectKey string, data []byte, contentType string) error

	// GetObject downloads the whole object. ErrObjectNotFound means the key does not exist.
	GetObject(ctx context.Context, objectKey string) ([]byte, error)
}

// Error constants for storage layer
var (
	ErrObjectNotFound = errors.New("object not found in storage")
)
