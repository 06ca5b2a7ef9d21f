package raster

import (
	"context"
	"fmt"
	"image"

	"slide-extractor/domain/slide"
)

// MemoryOpener implements slide.VideoOpener over images held in memory,
// keyed by the path they are opened with
type MemoryOpener struct {
	videos map[string][]image.Image
}

// NewMemoryOpener creates an opener with no videos
func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{videos: make(map[string][]image.Image)}
}

// Add registers the frames of a video under path
func (o *MemoryOpener) Add(path string, frames ...image.Image) {
	o.videos[path] = frames
}

// Open implements slide.VideoOpener
func (o *MemoryOpener) Open(ctx context.Context, path string) (slide.VideoSource, error) {
	frames, ok := o.videos[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", slide.ErrOpenVideo, path)
	}
	return &MemorySource{frames: frames}, nil
}

// MemorySource implements slide.VideoSource over a slice of images
type MemorySource struct {
	frames []image.Image
	pos    int
}

// FrameCount implements slide.VideoSource
func (s *MemorySource) FrameCount() int {
	return len(s.frames)
}

// Seek implements slide.VideoSource
func (s *MemorySource) Seek(frame int) error {
	if frame < 0 {
		return fmt.Errorf("%w: seek to frame %d", slide.ErrInvalidFrameRange, frame)
	}
	s.pos = frame
	return nil
}

// Read implements slide.VideoSource, returning a copy of the next image
func (s *MemorySource) Read() (slide.Frame, error) {
	if s.pos >= len(s.frames) {
		return nil, slide.ErrEndOfStream
	}
	img := s.frames[s.pos]
	s.pos++
	if img == nil || img.Bounds().Empty() {
		return nil, slide.ErrEndOfStream
	}
	return FromImage(img), nil
}

// Close implements slide.VideoSource
func (s *MemorySource) Close() error {
	return nil
}

// Ensure MemoryOpener implements slide.VideoOpener
var _ slide.VideoOpener = (*MemoryOpener)(nil)
