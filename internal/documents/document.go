// Package documents implements the request-facing document surface:
// upload, list, download, thumbnail, stamp and delete, over the file
// store, thumbnail cache and stamping orchestrator.
package documents

import "github.com/JaimeStill/stamper/internal/naming"

// Origin records how a stored document came to exist.
type Origin string

const (
	OriginUploaded Origin = "uploaded"
	OriginStamped  Origin = "stamped"
)

// Document describes a stored document. Origin and SourceName are derived
// from the name and never stored separately.
type Document struct {
	Name       string `json:"name"`
	Origin     Origin `json:"origin"`
	SourceName string `json:"sourceName,omitempty"`
}

// Stamped reports whether the document was produced by stamping.
func (d Document) Stamped() bool {
	return d.Origin == OriginStamped
}

// FromName builds the Document view of a stored name.
func FromName(name string) Document {
	if naming.IsStamped(name) {
		return Document{
			Name:       name,
			Origin:     OriginStamped,
			SourceName: naming.SourceName(name),
		}
	}
	return Document{Name: name, Origin: OriginUploaded}
}

// StampCommand carries the parameters of a stamp request.
type StampCommand struct {
	Source  string
	Date    string
	Name    string
	Comment string
}
