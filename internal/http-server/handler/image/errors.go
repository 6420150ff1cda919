package image

import "errors"

var (
	ErrInvalidNumber   = errors.New("invalid number")
	ErrUnsupportedType = errors.New("unsupported image type")
)
