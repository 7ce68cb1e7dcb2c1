package ports

import (
	"context"
	"io"
)

// StoredPhoto is an open photo stream with its metadata.
type StoredPhoto struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// PhotoStore keeps profile photos keyed by "<accountID>/<file>".
type PhotoStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Open(ctx context.Context, key string) (*StoredPhoto, error)
	// DeletePrefix removes every object under prefix; missing objects are not an error.
	DeletePrefix(ctx context.Context, prefix string) error
}
