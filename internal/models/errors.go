package models

import "errors"

var (
	ErrBadMultipart   = errors.New("bad multipart body")
	ErrMissingField   = errors.New("missing field")
	ErrMissingName    = errors.New("missing filename")
	ErrEmptyField     = errors.New("empty field")
	ErrInvalidPath    = errors.New("invalid path")
	ErrMethodNotAllow = errors.New("method not allowed")
)
