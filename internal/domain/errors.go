package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrSessionClosed = errors.New("session closed")
	ErrInvalidObject = errors.New("invalid object")
)
