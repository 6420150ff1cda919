package documents

import (
	"errors"
	"fmt"
)

var (
	ErrNoFiles        = errors.New("no files to upload")
	ErrInvalidProject = errors.New("project is required")
	ErrFileTooLarge   = errors.New("file too large")
)

// InvalidInputError reports a file rejected before any network call.
type InvalidInputError struct {
	File string
	Err  error
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid file %q: %v", e.File, e.Err)
}

func (e *InvalidInputError) Unwrap() error {
	return e.Err
}

type UnsupportedExtensionError struct {
	File      string
	Extension string
}

func (e *UnsupportedExtensionError) Error() string {
	return fmt.Sprintf("file %q has unsupported extension %q", e.File, e.Extension)
}
