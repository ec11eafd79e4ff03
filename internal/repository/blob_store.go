package repository

import (
	"context"
	"errors"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is the durable key-value layer the reminder collection and the
// notification settings are written to. Each key holds one opaque blob.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
