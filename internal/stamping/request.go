package stamping

import (
	"strings"
	"unicode"

	"github.com/JaimeStill/stamper/pkg/pdf"
)

// Fixed footer layout, in PDF points from the bottom-left page corner.
const (
	MarginX    = 50
	MarginY    = 50
	LineHeight = 15
	Font       = "Helvetica"
	FontSize   = 12
)

// Request is the metadata drawn onto every page of a stamped document.
type Request struct {
	Date    string
	Name    string
	Comment string
}

// Lines returns the footer lines, bottom line first. Control characters
// are replaced with spaces so every field stays on its own line.
func (r Request) Lines() []string {
	return []string{
		"Date: " + singleLine(r.Date),
		"Name: " + singleLine(r.Name),
		"Comment: " + singleLine(r.Comment),
	}
}

// Block returns the footer as a text block at the fixed layout.
func (r Request) Block() pdf.TextBlock {
	return pdf.TextBlock{
		Lines:      r.Lines(),
		X:          MarginX,
		Y:          MarginY,
		LineHeight: LineHeight,
		Font:       Font,
		Size:       FontSize,
	}
}

func singleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
