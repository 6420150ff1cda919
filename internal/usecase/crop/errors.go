package crop

import (
	"errors"
	"fmt"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrEmptySource      = errors.New("source is empty")
	ErrNoAnnotator      = errors.New("renderer has no annotator")
)

// DecodeError reports that a source image could not be fetched or decoded.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
