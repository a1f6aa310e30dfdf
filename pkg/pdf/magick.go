package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/JaimeStill/document-context/pkg/config"
	dcdoc "github.com/JaimeStill/document-context/pkg/document"
	dcimage "github.com/JaimeStill/document-context/pkg/image"
)

type magick struct {
	tempDir string
}

// NewMagickRasterizer returns a Rasterizer that renders pages through
// ImageMagick. Intermediate files are written beneath tempDir, or the
// system temp directory when tempDir is empty.
func NewMagickRasterizer(tempDir string) Rasterizer {
	return &magick{tempDir: tempDir}
}

func (m *magick) Rasterize(ctx context.Context, data []byte, page int, dpi int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(m.tempDir, "stamper-render-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create work dir: %w", ErrRender, err)
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(src, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: write source: %w", ErrRender, err)
	}

	pdfDoc, err := dcdoc.OpenPDF(src)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrRender, err)
	}
	defer pdfDoc.Close()

	p, err := pdfDoc.ExtractPage(page + 1)
	if err != nil {
		return nil, fmt.Errorf("%w: extract page %d: %w", ErrRender, page+1, err)
	}

	renderer, err := dcimage.NewImageMagickRenderer(config.ImageConfig{
		Format: "png",
		DPI:    dpi,
		Options: map[string]any{
			"background": "white",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create renderer: %w", ErrRender, err)
	}

	encoded, err := p.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: render page %d: %w", ErrRender, page+1, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("%w: decode page %d: %w", ErrRender, page+1, err)
	}

	return img, nil
}
