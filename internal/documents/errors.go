package documents

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JaimeStill/stamper/internal/faults"
)

// Request errors raised before a request reaches the document core.
var (
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	ErrMissingFile  = fmt.Errorf("%w: multipart field \"file\" required", faults.ErrInvalidInput)
	ErrMissingParam = fmt.Errorf("%w: missing required parameter", faults.ErrInvalidInput)
)

// MapHTTPStatus maps document errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return faults.MapHTTPStatus(err)
}
