// Package pdftest provides an in-memory pdf.Codec for tests.
//
// The fake accepts any input that starts with the PDF header. Serialize
// returns the original bytes followed by one comment line per appended
// text line, so stamped output always contains its source as a prefix.
package pdftest

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/JaimeStill/stamper/pkg/pdf"
)

// Header is the prefix the fake requires of every opened document.
var Header = []byte("%PDF-")

// Document returns minimal bytes the fake codec accepts.
func Document(body string) []byte {
	return append(bytes.Clone(Header), []byte("1.4\n"+body+"\n")...)
}

// Append records a single AppendText call.
type Append struct {
	Page  int
	Block pdf.TextBlock
}

// Codec is a configurable fake. The zero value opens single-page
// documents and renders a 2x2 white image.
type Codec struct {
	Pages        int
	OpenErr      error
	RenderErr    error
	SerializeErr error

	opens    atomic.Int32
	renders  atomic.Int32
	releases atomic.Int32

	mu      sync.Mutex
	appends []Append
	gate    chan struct{}
}

// Opens reports how many documents were opened successfully.
func (c *Codec) Opens() int { return int(c.opens.Load()) }

// Renders reports how many pages were rendered.
func (c *Codec) Renders() int { return int(c.renders.Load()) }

// Releases reports how many documents were released.
func (c *Codec) Releases() int { return int(c.releases.Load()) }

// Appends returns every recorded AppendText call in order.
func (c *Codec) Appends() []Append {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Append(nil), c.appends...)
}

// Block makes every RenderPage call wait until the returned function is
// called.
func (c *Codec) Block() (release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gate = make(chan struct{})
	gate := c.gate
	return sync.OnceFunc(func() { close(gate) })
}

func (c *Codec) Open(ctx context.Context, data []byte) (pdf.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.OpenErr != nil {
		return nil, c.OpenErr
	}
	if !bytes.HasPrefix(data, Header) {
		return nil, fmt.Errorf("%w: missing header", pdf.ErrParse)
	}

	pages := c.Pages
	if pages < 1 {
		pages = 1
	}

	c.opens.Add(1)
	return &document{codec: c, data: bytes.Clone(data), pages: pages}, nil
}

type document struct {
	codec    *Codec
	data     []byte
	pages    int
	stamps   []Append
	released bool
}

func (d *document) PageCount() int { return d.pages }

func (d *document) AppendText(page int, block pdf.TextBlock) error {
	if d.released {
		return pdf.ErrReleased
	}
	if page < 0 || page >= d.pages {
		return fmt.Errorf("%w: %d of %d", pdf.ErrPageRange, page, d.pages)
	}

	a := Append{Page: page, Block: block}
	d.stamps = append(d.stamps, a)

	d.codec.mu.Lock()
	d.codec.appends = append(d.codec.appends, a)
	d.codec.mu.Unlock()
	return nil
}

func (d *document) Serialize() ([]byte, error) {
	if d.released {
		return nil, pdf.ErrReleased
	}
	if d.codec.SerializeErr != nil {
		return nil, d.codec.SerializeErr
	}

	out := bytes.Clone(d.data)
	for _, s := range d.stamps {
		for _, line := range s.Block.Lines {
			out = fmt.Appendf(out, "%% page %d: %s\n", s.Page, line)
		}
	}
	return out, nil
}

func (d *document) RenderPage(ctx context.Context, page int, dpi int) (image.Image, error) {
	if d.released {
		return nil, pdf.ErrReleased
	}
	if page < 0 || page >= d.pages {
		return nil, fmt.Errorf("%w: %d of %d", pdf.ErrPageRange, page, d.pages)
	}

	d.codec.mu.Lock()
	gate := d.codec.gate
	d.codec.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.codec.renders.Add(1)
	if d.codec.RenderErr != nil {
		return nil, d.codec.RenderErr
	}

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, color.White)
		}
	}
	return img, nil
}

func (d *document) Release() error {
	if !d.released {
		d.released = true
		d.codec.releases.Add(1)
	}
	return nil
}
