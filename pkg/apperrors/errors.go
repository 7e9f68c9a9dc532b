package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation failed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUnsafeQuery         = errors.New("unsafe query rejected")
	ErrConnectionFailed    = errors.New("connection failed")
)
