package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when a generation request fails validation
	ErrInvalidRequest = errors.New("invalid generation request")
	// ErrModelUnavailable is returned when every model identifier failed on every path
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrParse is returned when no parsing strategy produced a dish list
	ErrParse = errors.New("model response parse error")

	ErrImageRateLimited = errors.New("image endpoint rate limited")
	ErrImageBadStatus   = errors.New("image endpoint returned non-success status")
	ErrImageContentType = errors.New("image endpoint returned non-image content")
	ErrImageTimeout     = errors.New("image fetch timed out")
	ErrUpload           = errors.New("image upload failed")
)

// ParseError keeps the raw model text so callers can surface it for diagnostics
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return ErrParse.Error()
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

// StatusError records the HTTP status of a failed upstream call
type StatusError struct {
	Kind   error
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", e.Kind, e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}
