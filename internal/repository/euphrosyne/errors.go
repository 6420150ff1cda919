package euphrosyne

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMalformedResponse = errors.New("malformed response")
)

type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == 404 {
		return ErrNotFound
	}
	return ErrUnexpectedStatus
}
