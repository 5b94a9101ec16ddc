// Package imaging normalizes uploaded photos into a JPEG payload that every
// downstream service can decode, whatever format the capturing device used.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/lehigh-university-libraries/coverscan/internal/scanerr"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 90

// Payload is a re-encoded JPEG image.
type Payload struct {
	Data   []byte
	Width  int
	Height int
	// SourceFormat is the format name reported by the decoder.
	SourceFormat string
}

// Base64 returns the payload as standard base64.
func (p *Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}

// Encoder re-rasterizes images onto an opaque canvas and encodes them as JPEG.
type Encoder struct {
	Quality int
	// MaxDimension bounds the longest side in pixels. Zero keeps the original size.
	MaxDimension int
}

// NewEncoder returns an Encoder. A quality outside 1..100 falls back to DefaultQuality.
func NewEncoder(quality, maxDimension int) *Encoder {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	if maxDimension < 0 {
		maxDimension = 0
	}
	return &Encoder{Quality: quality, MaxDimension: maxDimension}
}

// Encode decodes r and re-encodes it as JPEG.
func (e *Encoder) Encode(r io.Reader) (*Payload, error) {
	const op = "Encode"

	src, format, err := image.Decode(r)
	if err != nil {
		return nil, scanerr.New(op, scanerr.ErrDecode, err.Error())
	}

	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, scanerr.New(op, scanerr.ErrDecode, "image has no pixels")
	}

	width, height := e.targetSize(bounds.Dx(), bounds.Dy())
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	// JPEG has no alpha channel, so transparent areas become white as they
	// would on a browser canvas with a filled background.
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(canvas, canvas.Bounds(), src, bounds.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(canvas, canvas.Bounds(), src, bounds, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return &Payload{
		Data:         buf.Bytes(),
		Width:        width,
		Height:       height,
		SourceFormat: format,
	}, nil
}

func (e *Encoder) targetSize(width, height int) (int, int) {
	if e.MaxDimension == 0 || (width <= e.MaxDimension && height <= e.MaxDimension) {
		return width, height
	}

	if width >= height {
		scaled := height * e.MaxDimension / width
		return e.MaxDimension, max(scaled, 1)
	}
	scaled := width * e.MaxDimension / height
	return max(scaled, 1), e.MaxDimension
}
