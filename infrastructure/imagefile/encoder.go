// Package imagefile encodes slide images in the configured output format.
package imagefile

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	"slide-extractor/domain/slide"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality is used when no quality is configured
const DefaultJPEGQuality = 95

// Encoder writes images in one format
type Encoder struct {
	format       slide.Format
	jpegQuality  int
	webpLossless bool
	webpQuality  float32
}

// EncoderOption is a functional option for configuring Encoder
type EncoderOption func(*Encoder)

// WithJPEGQuality sets the JPEG quality (1-100)
func WithJPEGQuality(quality int) EncoderOption {
	return func(e *Encoder) {
		e.jpegQuality = quality
	}
}

// WithLossyWebP switches WebP output to lossy at the given quality (0-100)
func WithLossyWebP(quality float32) EncoderOption {
	return func(e *Encoder) {
		e.webpLossless = false
		e.webpQuality = quality
	}
}

// NewEncoder creates an encoder for the given format
func NewEncoder(format slide.Format, opts ...EncoderOption) (*Encoder, error) {
	if format.Extension() == "" {
		return nil, fmt.Errorf("%w: %q", slide.ErrUnsupportedFormat, format)
	}

	e := &Encoder{
		format:       format,
		jpegQuality:  DefaultJPEGQuality,
		webpLossless: true,
		webpQuality:  90,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.jpegQuality < 1 || e.jpegQuality > 100 {
		return nil, fmt.Errorf("jpeg quality %d must be between 1 and 100", e.jpegQuality)
	}

	return e, nil
}

// Format returns the format the encoder produces
func (e *Encoder) Format() slide.Format {
	return e.format
}

// JPEGQuality returns the configured JPEG quality
func (e *Encoder) JPEGQuality() int {
	return e.jpegQuality
}

// Encode writes img to w
func (e *Encoder) Encode(w io.Writer, img image.Image) error {
	switch e.format {
	case slide.FormatWebP:
		return webp.Encode(w, img, &webp.Options{
			Lossless: e.webpLossless,
			Quality:  e.webpQuality,
		})
	case slide.FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(e.jpegQuality))
	case slide.FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case slide.FormatBMP:
		return imaging.Encode(w, img, imaging.BMP)
	case slide.FormatTIFF:
		return imaging.Encode(w, img, imaging.TIFF)
	}
	return fmt.Errorf("%w: %q", slide.ErrUnsupportedFormat, e.format)
}

// Save writes img to path, replacing any existing file
func (e *Encoder) Save(path string, img image.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)
	if err := e.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", e.format, err)
	}
	return w.Flush()
}
