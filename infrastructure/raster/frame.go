// Package raster implements slide detection on in-memory RGBA frames,
// reproducing OpenCV's arithmetic so both backends agree on results.
package raster

import (
	"fmt"
	"image"
	"image/draw"

	"slide-extractor/domain/slide"
)

// Frame is a decoded frame held as an RGBA image
type Frame struct {
	Image *image.RGBA
}

// NewFrame wraps an RGBA image, rebasing it to a zero origin if needed
func NewFrame(img *image.RGBA) *Frame {
	if img.Rect.Min != (image.Point{}) {
		rebased := image.NewRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
		draw.Draw(rebased, rebased.Rect, img, img.Rect.Min, draw.Src)
		img = rebased
	}
	return &Frame{Image: img}
}

// FromImage copies any image into a Frame
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return &Frame{Image: rgba}
}

// FromRGB24 builds a Frame from packed 8-bit RGB pixels
func FromRGB24(buf []byte, width, height int) (*Frame, error) {
	if len(buf) != width*height*3 {
		return nil, fmt.Errorf("rgb24 buffer holds %d bytes, want %d for %dx%d", len(buf), width*height*3, width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	pix := img.Pix
	for i, j := 0, 0; i < len(buf); i, j = i+3, j+4 {
		pix[j] = buf[i]
		pix[j+1] = buf[i+1]
		pix[j+2] = buf[i+2]
		pix[j+3] = 0xff
	}
	return &Frame{Image: img}, nil
}

// Size implements slide.Frame
func (f *Frame) Size() image.Point {
	if f.Image == nil {
		return image.Point{}
	}
	return f.Image.Rect.Size()
}

// Close implements slide.Frame
func (f *Frame) Close() error {
	f.Image = nil
	return nil
}

func asFrame(f slide.Frame) (*Frame, error) {
	rf, ok := f.(*Frame)
	if !ok || rf.Image == nil {
		return nil, fmt.Errorf("%w: %T", slide.ErrUnsupportedFrame, f)
	}
	return rf, nil
}

// Ensure Frame implements slide.Frame
var _ slide.Frame = (*Frame)(nil)
