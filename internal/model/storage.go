package model

import (
	"context"
	"io"
)

// Storage is an object store for user uploaded files.
type Storage interface {
	Upload(ctx context.Context, key, contentType string, size int64, reader io.Reader) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
