// Package imageutil validates uploaded try-on images and re-encodes them as JPEG.
package imageutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.ImageProcessor = (*Processor)(nil)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// DecodeDataURL accepts data:image/<jpeg|jpg|png|gif>;base64,<payload> and
// returns the raw bytes. maxBytes bounds the decoded size.
func DecodeDataURL(s string, maxBytes int64) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	head, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasPrefix(head, "data:") || !strings.HasSuffix(head, ";base64") {
		return nil, fmt.Errorf("expected a base64 data url: %w", domain.ErrInvalidImage)
	}
	mime := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64"))
	if mime == "image/jpg" {
		mime = "image/jpeg"
	}
	if !allowedTypes[mime] {
		return nil, fmt.Errorf("unsupported image type %q: %w", mime, domain.ErrInvalidImage)
	}
	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, fmt.Errorf("image larger than %d bytes: %w", maxBytes, domain.ErrInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("bad base64 payload: %w", domain.ErrInvalidImage)
	}
	return data, nil
}

// DefaultMaxPixels bounds the decoded size of an upload (width times height).
const DefaultMaxPixels = 40_000_000

// Processor checks size and format, auto-orients, bounds the longest side and
// encodes to JPEG.
type Processor struct {
	maxBytes  int64
	maxDim    int
	maxPixels int64
	quality   int
}

// NewProcessor returns a Processor. maxPixels <= 0 means DefaultMaxPixels.
func NewProcessor(maxBytes int64, maxDim int, maxPixels int64) *Processor {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Processor{maxBytes: maxBytes, maxDim: maxDim, maxPixels: maxPixels, quality: 90}
}

func (p *Processor) Normalize(data []byte) (model.Image, error) {
	if len(data) == 0 {
		return model.Image{}, fmt.Errorf("empty image: %w", domain.ErrInvalidImage)
	}
	if p.maxBytes > 0 && int64(len(data)) > p.maxBytes {
		return model.Image{}, fmt.Errorf("image larger than %d bytes: %w", p.maxBytes, domain.ErrInvalidImage)
	}
	ct := http.DetectContentType(data)
	if !allowedTypes[ct] {
		return model.Image{}, fmt.Errorf("unsupported image type %q: %w", ct, domain.ErrInvalidImage)
	}

	// The header is enough to reject images whose pixel buffer would not fit.
	hdr, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return model.Image{}, fmt.Errorf("decode header: %v: %w", err, domain.ErrInvalidImage)
	}
	if hdr.Width <= 0 || hdr.Height <= 0 {
		return model.Image{}, fmt.Errorf("zero-sized image: %w", domain.ErrInvalidImage)
	}
	if int64(hdr.Width)*int64(hdr.Height) > p.maxPixels {
		return model.Image{}, fmt.Errorf("image is %dx%d, over %d pixels: %w", hdr.Width, hdr.Height, p.maxPixels, domain.ErrInvalidImage)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return model.Image{}, fmt.Errorf("decode: %v: %w", err, domain.ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return model.Image{}, fmt.Errorf("zero-sized image: %w", domain.ErrInvalidImage)
	}
	if p.maxDim > 0 && (b.Dx() > p.maxDim || b.Dy() > p.maxDim) {
		img = imaging.Fit(img, p.maxDim, p.maxDim, imaging.Lanczos)
	}
	if ct != "image/jpeg" {
		// JPEG has no alpha channel
		bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.White)
		img = imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return model.Image{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return model.Image{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}
