// Package imaging encodes rendered page rasters as JPEG thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 90

// ErrEmptyImage indicates an image with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Encoder converts a raster into encoded image bytes.
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
}

// JPEG encodes images as baseline JPEG. Transparent regions are flattened
// onto white before encoding.
type JPEG struct {
	Quality int
}

// NewJPEG returns a JPEG encoder. Quality outside 1..100 falls back to
// DefaultQuality.
func NewJPEG(quality int) *JPEG {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &JPEG{Quality: quality}
}

func (e *JPEG) Encode(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, Flatten(img), &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Flatten composites img over an opaque white canvas of the same size,
// anchored at the origin.
func Flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
