package raster

import (
	"fmt"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/imagefile"

	"github.com/disintegration/imaging"
)

// SlideWriter implements slide.SlideWriter by cropping raster frames and encoding them
type SlideWriter struct {
	encoder *imagefile.Encoder
}

// NewSlideWriter creates a writer that saves slides with the given encoder
func NewSlideWriter(encoder *imagefile.Encoder) *SlideWriter {
	return &SlideWriter{encoder: encoder}
}

// WriteSlide crops the frame to region and saves it to path
func (w *SlideWriter) WriteSlide(f slide.Frame, region slide.Region, path string) error {
	frame, err := asFrame(f)
	if err != nil {
		return err
	}
	if region.Empty() || !region.Within(frame.Size()) {
		return fmt.Errorf("region %v outside %v frame", region, frame.Size())
	}

	cropped := imaging.Crop(frame.Image, region.Rect())
	return w.encoder.Save(path, cropped)
}

// Format implements slide.SlideWriter
func (w *SlideWriter) Format() slide.Format {
	return w.encoder.Format()
}

// Ensure SlideWriter implements slide.SlideWriter
var _ slide.SlideWriter = (*SlideWriter)(nil)
