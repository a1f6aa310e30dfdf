// Package faults defines the error classes shared by the document core.
// Component errors wrap one of these classes so callers can branch with
// errors.Is regardless of which component produced the failure.
package faults

import (
	"errors"
	"net/http"
)

var (
	// ErrInvalidInput marks a client fault: an unsafe or malformed name,
	// or a declared content type other than PDF.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a missing document or thumbnail.
	ErrNotFound = errors.New("not found")
	// ErrProcessing marks a codec open, append, render or encode failure.
	ErrProcessing = errors.New("processing failed")
	// ErrIO marks a filesystem read, write or rename failure.
	ErrIO = errors.New("io failure")
)

// MapHTTPStatus maps an error class to an HTTP status code.
// InvalidInput and NotFound are client faults; everything else is a server fault.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
