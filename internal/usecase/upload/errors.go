package upload

import (
	"fmt"
	"strings"

	"euphro-assets/internal/domain"
)

// UploadInitError reports that the destination refused to create the file.
// No range was written.
type UploadInitError struct {
	File string
	Err  error
}

func (e *UploadInitError) Error() string {
	return fmt.Sprintf("failed to initialize upload of %s: %v", e.File, e.Err)
}

func (e *UploadInitError) Unwrap() error {
	return e.Err
}

type ChunkFailure struct {
	Chunk domain.Chunk
	Err   error
}

// ChunkUploadError lists every range of a file that failed to upload. All
// other ranges were attempted.
type ChunkUploadError struct {
	File     string
	Failures []ChunkFailure
}

func (e *ChunkUploadError) Error() string {
	ranges := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		ranges = append(ranges, fmt.Sprintf("%s: %v", f.Chunk.Range(), f.Err))
	}
	return fmt.Sprintf("failed to upload %d chunk(s) of %s: %s", len(e.Failures), e.File, strings.Join(ranges, "; "))
}

func (e *ChunkUploadError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}

type FinalizeError struct {
	File string
	Err  error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("failed to finalize upload of %s: %v", e.File, e.Err)
}

func (e *FinalizeError) Unwrap() error {
	return e.Err
}
