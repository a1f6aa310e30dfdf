package storage

import "errors"

var (
	// ErrNotFound indicates the requested file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key escapes the storage root.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
	// ErrIsDirectory indicates a file operation addressed a directory.
	ErrIsDirectory = errors.New("storage key addresses a directory")
)
