package errs

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrRunNotStarted = errors.New("run not started")
	ErrInvalidInput  = errors.New("invalid input")
)
