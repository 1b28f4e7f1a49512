package blob

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when no blob exists under the requested key.
var ErrNotFound = errors.New("blob not found")

type (
	// Source is a positioned cursor over a stored blob. Read fills p with at
	// most len(p) bytes starting at the cursor; the cursor position after a
	// Read is backend-specific, so callers must Seek before every Read they
	// care about.
	Source interface {
		Seek(pos int64) error
		Read(p []byte) (int, error)
	}

	// Object is an open blob owned by a single consumer.
	Object interface {
		Source
		Size() int64
		Close() error
	}

	// Store persists raw blobs by key. Keys are slash-separated paths.
	Store interface {
		Put(ctx context.Context, key string, r io.Reader) (int64, error)
		Open(ctx context.Context, key string) (Object, error)
		Stat(ctx context.Context, key string) (int64, error)
		Delete(ctx context.Context, key string) error
	}
)
