package annotation

import "errors"

var (
	ErrDisposed      = errors.New("session is disposed")
	ErrAlreadyLoaded = errors.New("session is already loaded")
	ErrNotReady      = errors.New("session has no rendered image")
	ErrUnknownMode   = errors.New("unknown selection mode")
	ErrClosed        = errors.New("notebook is closed")
)
