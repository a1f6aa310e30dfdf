// Package naming holds the filename policy for stored documents and
// their derived artifacts. Every function is pure.
package naming

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/stamper/internal/faults"
)

const (
	// DocumentExt is the required suffix of every stored document.
	DocumentExt = ".pdf"
	// ImageExt is the suffix of every thumbnail.
	ImageExt = ".jpg"
	// StampedPrefix marks documents produced by stamping.
	StampedPrefix = "stamped_"
)

// ErrInvalidName is returned by Sanitize for unsafe or unusable names.
var ErrInvalidName = fmt.Errorf("%w: invalid file name", faults.ErrInvalidInput)

// Sanitize validates a caller-supplied file name and returns the name
// under which the document is stored.
func Sanitize(raw string) (string, error) {
	if strings.Contains(raw, "..") {
		return "", fmt.Errorf("%w: %q contains a parent directory sequence", ErrInvalidName, raw)
	}
	if strings.ContainsAny(raw, "/\\\x00") {
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, raw)
	}

	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if !hasDocumentExt(name) || len(name) == len(DocumentExt) {
		return "", fmt.Errorf("%w: %q must end in %s", ErrInvalidName, name, DocumentExt)
	}

	return name, nil
}

// StampedName returns the name of the stamped copy of name.
// Already stamped names gain a second prefix.
func StampedName(name string) string {
	return StampedPrefix + name
}

// ThumbnailName swaps the trailing document extension of name for the
// image extension. Names without the extension get it appended.
func ThumbnailName(name string) string {
	if hasDocumentExt(name) {
		return name[:len(name)-len(DocumentExt)] + ImageExt
	}
	return name + ImageExt
}

// IsStamped reports whether name was produced by StampedName.
func IsStamped(name string) bool {
	return strings.HasPrefix(name, StampedPrefix)
}

// SourceName returns the name a stamped document was derived from,
// or the empty string for uploaded documents.
func SourceName(name string) string {
	if !IsStamped(name) {
		return ""
	}
	return strings.TrimPrefix(name, StampedPrefix)
}

// IsDocument reports whether name carries the document extension.
func IsDocument(name string) bool {
	return hasDocumentExt(name)
}

func hasDocumentExt(name string) bool {
	return len(name) >= len(DocumentExt) &&
		strings.EqualFold(name[len(name)-len(DocumentExt):], DocumentExt)
}
