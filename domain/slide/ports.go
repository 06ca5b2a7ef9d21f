package slide

import (
	"context"
	"image"
)

// Frame is a decoded colour raster owned by whoever holds it.
// Adapters define their own concrete frame type and reject foreign ones
// with ErrUnsupportedFrame.
type Frame interface {
	// Size returns the frame's width and height in pixels
	Size() image.Point

	// Close releases the frame's pixel storage
	Close() error
}

// VideoSource is a frame-sequential decoder over one open video
type VideoSource interface {
	// FrameCount returns the total number of frames, or 0 when unknown
	FrameCount() int

	// Seek positions the source so the next Read returns the given frame
	Seek(frame int) error

	// Read decodes the next frame. It returns ErrEndOfStream once the
	// stream is exhausted or a decoded frame is empty.
	Read() (Frame, error)

	// Close releases the decoder
	Close() error
}

// VideoOpener opens video sources by path
type VideoOpener interface {
	// Open opens the video, returning an error wrapping ErrOpenVideo on failure
	Open(ctx context.Context, path string) (VideoSource, error)
}

// ChangeDetector measures how similar two frames are
type ChangeDetector interface {
	// Similarity returns 1 minus the fraction of differing pixels
	Similarity(prev, curr Frame) (float64, error)
}

// RegionDetector locates the slide within a frame
type RegionDetector interface {
	// DetectRegion returns the bounding rectangle of the largest white
	// area, or the full frame when there is none
	DetectRegion(frame Frame) (Region, error)
}

// SlideWriter persists the cropped slide region of a frame
type SlideWriter interface {
	// WriteSlide crops frame to region and writes it to path
	WriteSlide(frame Frame, region Region, path string) error

	// Format returns the image format the writer produces
	Format() Format
}

// DirEnsurer creates output directories
type DirEnsurer interface {
	// EnsureDir creates path and any missing parents
	EnsureDir(path string) error
}

// Backend bundles the adapters one decoding stack provides
type Backend struct {
	Name    string
	Opener  VideoOpener
	Changes ChangeDetector
	Regions RegionDetector
	Writer  SlideWriter
}
