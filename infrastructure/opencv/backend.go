//go:build opencv

// Package opencv provides the slide.Backend built on GoCV. Frames are BGR
// matrices straight from the OpenCV decoder.
package opencv

import (
	"context"
	"fmt"
	"image"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/imagefile"

	"gocv.io/x/gocv"
)

// Name identifies this backend in configuration and logs
const Name = "opencv"

// NewBackend assembles the OpenCV adapters
func NewBackend(params slide.DetectionParams, encoder *imagefile.Encoder) (slide.Backend, error) {
	return slide.Backend{
		Name:    Name,
		Opener:  NewOpener(),
		Changes: NewChangeDetector(),
		Regions: NewRegionDetector(params),
		Writer:  NewSlideWriter(encoder),
	}, nil
}

// Frame is a decoded BGR matrix
type Frame struct {
	Mat gocv.Mat
}

// Size implements slide.Frame
func (f *Frame) Size() image.Point {
	return image.Pt(f.Mat.Cols(), f.Mat.Rows())
}

// Close implements slide.Frame
func (f *Frame) Close() error {
	return f.Mat.Close()
}

// FromBGR copies packed BGR bytes into a frame
func FromBGR(buf []byte, width, height int) (*Frame, error) {
	view, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, buf)
	if err != nil {
		return nil, err
	}
	defer view.Close()
	return &Frame{Mat: view.Clone()}, nil
}

func asFrame(f slide.Frame) (*Frame, error) {
	frame, ok := f.(*Frame)
	if !ok || frame.Mat.Empty() {
		return nil, fmt.Errorf("%w: %T", slide.ErrUnsupportedFrame, f)
	}
	return frame, nil
}

// Opener implements slide.VideoOpener with gocv.VideoCapture
type Opener struct{}

// NewOpener creates a new OpenCV video opener
func NewOpener() *Opener {
	return &Opener{}
}

// Open implements slide.VideoOpener
func (o *Opener) Open(ctx context.Context, path string) (slide.VideoSource, error) {
	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", slide.ErrOpenVideo, path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w %s", slide.ErrOpenVideo, path)
	}
	return &Source{capture: capture}, nil
}

// Source implements slide.VideoSource over a capture
type Source struct {
	capture *gocv.VideoCapture
}

// FrameCount implements slide.VideoSource
func (s *Source) FrameCount() int {
	n := int(s.capture.Get(gocv.VideoCaptureFrameCount))
	if n < 0 {
		return 0
	}
	return n
}

// Seek implements slide.VideoSource
func (s *Source) Seek(frame int) error {
	if frame < 0 {
		return fmt.Errorf("%w: seek to frame %d", slide.ErrInvalidFrameRange, frame)
	}
	s.capture.Set(gocv.VideoCapturePosFrames, float64(frame))
	return nil
}

// Read implements slide.VideoSource
func (s *Source) Read() (slide.Frame, error) {
	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, slide.ErrEndOfStream
	}
	return &Frame{Mat: mat}, nil
}

// Close implements slide.VideoSource
func (s *Source) Close() error {
	return s.capture.Close()
}

// ChangeDetector implements slide.ChangeDetector by counting non-zero pixels
// of the grayscale absolute difference
type ChangeDetector struct{}

// NewChangeDetector creates a new OpenCV change detector
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{}
}

// Similarity implements slide.ChangeDetector
func (d *ChangeDetector) Similarity(prev, curr slide.Frame) (float64, error) {
	a, err := asFrame(prev)
	if err != nil {
		return 0, err
	}
	b, err := asFrame(curr)
	if err != nil {
		return 0, err
	}
	if a.Size() != b.Size() {
		return 0, fmt.Errorf("%w: %v vs %v", slide.ErrFrameSizeMismatch, a.Size(), b.Size())
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a.Mat, b.Mat, &diff)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(diff, &gray, gocv.ColorBGRToGray)

	return slide.Similarity(gocv.CountNonZero(gray), gray.Rows()*gray.Cols()), nil
}

// RegionDetector implements slide.RegionDetector with an inRange mask and
// external contours
type RegionDetector struct {
	params slide.DetectionParams
}

// NewRegionDetector creates a detector for the configured white band
func NewRegionDetector(params slide.DetectionParams) *RegionDetector {
	return &RegionDetector{params: params}
}

// DetectRegion implements slide.RegionDetector
func (d *RegionDetector) DetectRegion(f slide.Frame) (slide.Region, error) {
	frame, err := asFrame(f)
	if err != nil {
		return slide.Region{}, err
	}

	lo, hi := d.params.WhiteLower, d.params.WhiteUpper
	lower := gocv.NewScalar(float64(lo.B), float64(lo.G), float64(lo.R), 0)
	upper := gocv.NewScalar(float64(hi.B), float64(hi.G), float64(hi.R), 0)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(frame.Mat, lower, upper, &mask)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	if len(contours) == 0 {
		return slide.FullFrame(frame.Size()), nil
	}

	best, bestArea := 0, gocv.ContourArea(contours[0])
	for i := 1; i < len(contours); i++ {
		if area := gocv.ContourArea(contours[i]); area > bestArea {
			best, bestArea = i, area
		}
	}

	return slide.RegionFromRect(gocv.BoundingRect(contours[best])), nil
}

// SlideWriter implements slide.SlideWriter. PNG and JPEG go through
// imwrite; other formats are converted and handed to the encoder.
type SlideWriter struct {
	encoder *imagefile.Encoder
}

// NewSlideWriter creates a writer for the encoder's format
func NewSlideWriter(encoder *imagefile.Encoder) *SlideWriter {
	return &SlideWriter{encoder: encoder}
}

// WriteSlide implements slide.SlideWriter
func (w *SlideWriter) WriteSlide(f slide.Frame, region slide.Region, path string) error {
	frame, err := asFrame(f)
	if err != nil {
		return err
	}
	if region.Empty() || !region.Within(frame.Size()) {
		return fmt.Errorf("region %v outside %v frame", region, frame.Size())
	}

	roi := frame.Mat.Region(region.Rect())
	defer roi.Close()

	switch w.encoder.Format() {
	case slide.FormatPNG:
		if !gocv.IMWrite(path, roi) {
			return fmt.Errorf("failed to write %s", path)
		}
		return nil
	case slide.FormatJPEG:
		if !gocv.IMWriteWithParams(path, roi, []int{int(gocv.IMWriteJpegQuality), w.encoder.JPEGQuality()}) {
			return fmt.Errorf("failed to write %s", path)
		}
		return nil
	}

	cropped := roi.Clone()
	defer cropped.Close()
	img, err := cropped.ToImage()
	if err != nil {
		return fmt.Errorf("failed to convert slide: %w", err)
	}
	return w.encoder.Save(path, img)
}

// Format implements slide.SlideWriter
func (w *SlideWriter) Format() slide.Format {
	return w.encoder.Format()
}

// Ensure adapters implement their ports
var (
	_ slide.VideoOpener    = (*Opener)(nil)
	_ slide.VideoSource    = (*Source)(nil)
	_ slide.ChangeDetector = (*ChangeDetector)(nil)
	_ slide.RegionDetector = (*RegionDetector)(nil)
	_ slide.SlideWriter    = (*SlideWriter)(nil)
)
