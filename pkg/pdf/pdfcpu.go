package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

var disableConfigDir sync.Once

type codec struct {
	raster Rasterizer
}

// NewCodec returns a Codec backed by pdfcpu. Rendering is delegated to
// raster.
func NewCodec(raster Rasterizer) Codec {
	disableConfigDir.Do(api.DisableConfigDir)
	return &codec{raster: raster}
}

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func (c *codec) Open(ctx context.Context, data []byte) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	conf := newConfiguration()
	count, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: document has no pages", ErrParse)
	}

	return &document{
		data:   slices.Clone(data),
		pages:  count,
		conf:   conf,
		raster: c.raster,
	}, nil
}

// stamp is a text block pending on a set of pages.
type stamp struct {
	block TextBlock
	pages []int
}

type document struct {
	mu       sync.Mutex
	data     []byte
	pages    int
	pending  []stamp
	conf     *model.Configuration
	raster   Rasterizer
	released bool
}

func (d *document) PageCount() int {
	return d.pages
}

func (d *document) AppendText(page int, block TextBlock) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrReleased
	}
	if page < 0 || page >= d.pages {
		return fmt.Errorf("%w: %d of %d", ErrPageRange, page, d.pages)
	}
	if len(block.Lines) == 0 {
		return ErrEmptyText
	}

	for i := range d.pending {
		if d.pending[i].block.Equal(block) {
			d.pending[i].pages = append(d.pending[i].pages, page)
			return nil
		}
	}

	block.Lines = slices.Clone(block.Lines)
	d.pending = append(d.pending, stamp{block: block, pages: []int{page}})
	return nil
}

func (d *document) Serialize() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil, ErrReleased
	}
	if err := d.flush(); err != nil {
		return nil, err
	}

	return slices.Clone(d.data), nil
}

func (d *document) RenderPage(ctx context.Context, page int, dpi int) (image.Image, error) {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return nil, ErrReleased
	}
	if page < 0 || page >= d.pages {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %d of %d", ErrPageRange, page, d.pages)
	}
	if err := d.flush(); err != nil {
		d.mu.Unlock()
		return nil, err
	}
	data := d.data
	d.mu.Unlock()

	if d.raster == nil {
		return nil, fmt.Errorf("%w: no rasterizer configured", ErrRender)
	}
	return d.raster.Rasterize(ctx, data, page, dpi)
}

func (d *document) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.released = true
	d.data = nil
	d.pending = nil
	return nil
}

// flush draws every pending block. The caller holds d.mu.
func (d *document) flush() error {
	for len(d.pending) > 0 {
		s := d.pending[0]
		pages := selectedPages(s.pages)

		for i, line := range s.block.Lines {
			if line == "" {
				continue
			}
			if err := d.drawLine(pages, line, lineDescription(s.block, i)); err != nil {
				return err
			}
		}

		d.pending = d.pending[1:]
	}

	d.pending = nil
	return nil
}

// drawLine stamps a single line of text on pages. Each line is its own
// stamp so its baseline can be placed exactly; pdfcpu's multi-line text
// uses a line spacing derived from the font instead of the block's.
func (d *document) drawLine(pages []string, line, desc string) error {
	wm, err := api.TextWatermark(line, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("build text stamp: %w", err)
	}

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(d.data), &out, pages, wm, d.conf); err != nil {
		return fmt.Errorf("apply text stamp: %w", err)
	}

	d.data = out.Bytes()
	return nil
}

// lineDescription places line i of b at (X, Y + i*LineHeight) from the
// bottom left corner of the page.
func lineDescription(b TextBlock, i int) string {
	return strings.Join([]string{
		"fontname:" + b.Font,
		"points:" + formatFloat(b.Size),
		"position:bl",
		"offset:" + formatFloat(b.X) + " " + formatFloat(b.Y+float64(i)*b.LineHeight),
		"scalefactor:1 abs",
		"aligntext:l",
		"rotation:0",
		"opacity:1",
		"fillcolor:#000000",
	}, ", ")
}

// selectedPages converts zero-based indices to pdfcpu's one-based page
// selection syntax.
func selectedPages(pages []int) []string {
	sel := make([]string, 0, len(pages))
	for _, p := range pages {
		sel = append(sel, strconv.Itoa(p+1))
	}
	return sel
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
