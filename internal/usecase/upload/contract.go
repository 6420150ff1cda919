package upload

import (
	"context"
	"io"

	"euphro-assets/internal/domain"
)

// Destination is the remote side of a chunked upload. Create is always called
// once before any WriteRange; WriteRange may be called concurrently.
type Destination interface {
	Create(ctx context.Context, size int64) error
	WriteRange(ctx context.Context, chunk domain.Chunk, data io.Reader) error
}

type finalizer interface {
	Finalize(ctx context.Context) error
}

type aborter interface {
	Abort(ctx context.Context) error
}

// partSizer is implemented by destinations with their own part size limits.
type partSizer interface {
	PartSize() int64
}
