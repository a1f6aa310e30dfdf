// Package pdf opens, stamps, serializes and rasterizes PDF documents.
//
// A Codec produces Document handles. Text appended to a Document is held
// until Serialize or RenderPage, at which point pending blocks are drawn on
// top of the existing page content. Documents are not safe for concurrent
// use by multiple goroutines without external synchronization; the
// default implementation serializes calls internally.
package pdf

import (
	"context"
	"errors"
	"image"
	"slices"
)

var (
	// ErrParse indicates the input could not be read as a PDF.
	ErrParse = errors.New("unreadable pdf")
	// ErrPageRange indicates a page index outside the document.
	ErrPageRange = errors.New("page index out of range")
	// ErrEmptyText indicates a text block with no lines.
	ErrEmptyText = errors.New("text block has no lines")
	// ErrRender indicates the page could not be rasterized.
	ErrRender = errors.New("page render failed")
	// ErrReleased indicates use of a document after Release.
	ErrReleased = errors.New("document released")
)

// Codec opens PDF documents from raw bytes.
type Codec interface {
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is an open PDF. Page indices are zero-based.
type Document interface {
	PageCount() int
	// AppendText layers block on top of the existing content of page.
	AppendText(page int, block TextBlock) error
	// Serialize returns the document bytes including all appended text.
	Serialize() ([]byte, error)
	// RenderPage rasterizes page at dpi as an RGB image.
	RenderPage(ctx context.Context, page int, dpi int) (image.Image, error)
	// Release frees resources held by the document. It is safe to call
	// more than once.
	Release() error
}

// TextBlock is a left-aligned run of lines anchored at X, Y in PDF points
// from the bottom-left corner of the page. Lines[0] sits on the baseline
// at Y; each following line is LineHeight above the previous one.
type TextBlock struct {
	Lines      []string
	X          float64
	Y          float64
	LineHeight float64
	Font       string
	Size       float64
}

// Equal reports whether two blocks draw identical text at the same place.
func (b TextBlock) Equal(o TextBlock) bool {
	return b.X == o.X &&
		b.Y == o.Y &&
		b.LineHeight == o.LineHeight &&
		b.Font == o.Font &&
		b.Size == o.Size &&
		slices.Equal(b.Lines, o.Lines)
}

// Rasterizer renders a single page of a serialized PDF.
type Rasterizer interface {
	Rasterize(ctx context.Context, data []byte, page int, dpi int) (image.Image, error)
}
