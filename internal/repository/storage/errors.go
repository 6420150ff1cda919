package storage

import "errors"

var (
	ErrObjectNotFound   = errors.New("object not found")
	ErrStorageError     = errors.New("storage error")
	ErrNotCreated       = errors.New("remote file was not created")
	ErrUnexpectedStatus = errors.New("unexpected response status")
)
