package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"slide-extractor/domain/slide"

	"go.uber.org/zap"
)

// Service runs the slide extraction pipeline over one video
type Service struct {
	backend slide.Backend
	dirs    slide.DirEnsurer
	params  slide.DetectionParams
	output  io.Writer
	logger  *zap.Logger
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithParams sets the detection parameters
func WithParams(params slide.DetectionParams) ServiceOption {
	return func(s *Service) {
		s.params = params
	}
}

// WithOutput sets where the user-facing summary is written
func WithOutput(w io.Writer) ServiceOption {
	return func(s *Service) {
		s.output = w
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new extraction service
func NewService(backend slide.Backend, dirs slide.DirEnsurer, opts ...ServiceOption) *Service {
	s := &Service{
		backend: backend,
		dirs:    dirs,
		params:  slide.DefaultParams(),
		output:  io.Discard,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ExtractInput contains the parameters of one extraction run
type ExtractInput struct {
	VideoPath  string
	OutputDir  string
	StartFrame int
	EndFrame   int // Exclusive; negative selects the total frame count
}

// SlideRecord describes one written slide
type SlideRecord struct {
	Index       int
	FrameOffset int
	Region      slide.Region
	Similarity  float64 // Against the previous frame; 0 for the first slide
	Path        string
}

// ExtractResult contains the outcome of an extraction run
type ExtractResult struct {
	SlideCount      int
	FramesProcessed int
	Range           slide.FrameRange
	Slides          []SlideRecord
}

// Extract opens the video, walks the frame range and writes one slide per detected change.
// The first processed frame always produces a slide.
func (s *Service) Extract(ctx context.Context, input ExtractInput) (_ *ExtractResult, err error) {
	if err := s.params.Validate(); err != nil {
		return nil, err
	}

	source, err := s.backend.Opener.Open(ctx, input.VideoPath)
	if err != nil {
		return nil, err
	}
	closed := false
	defer func() {
		if closed {
			return
		}
		if closeErr := source.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close video %s: %w", input.VideoPath, closeErr)
		}
	}()

	frameRange, err := slide.NewFrameRange(input.StartFrame, input.EndFrame, source.FrameCount())
	if err != nil {
		return nil, err
	}

	if err := s.dirs.EnsureDir(input.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := source.Seek(frameRange.Start); err != nil {
		return nil, fmt.Errorf("failed to seek to frame %d: %w", frameRange.Start, err)
	}

	s.logger.Debug("extraction started",
		zap.String("video", input.VideoPath),
		zap.String("backend", s.backend.Name),
		zap.Stringer("range", frameRange),
		zap.Int("frame_count", source.FrameCount()),
	)

	result := &ExtractResult{Range: frameRange}

	var prev slide.Frame
	defer func() {
		if prev != nil {
			prev.Close()
		}
	}()

	for offset := 0; frameRange.Allows(offset); offset++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		curr, err := source.Read()
		if errors.Is(err, slide.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %d: %w", frameRange.Start+offset, err)
		}

		record, changed, err := s.step(prev, curr, offset, len(result.Slides), input.OutputDir)
		if err != nil {
			curr.Close()
			return nil, err
		}
		if changed {
			result.Slides = append(result.Slides, record)
		}

		if prev != nil {
			prev.Close()
		}
		prev = curr
		result.FramesProcessed++
	}

	result.SlideCount = len(result.Slides)

	// The decoder may only report a failure once it has been stopped
	closed = true
	if err := source.Close(); err != nil {
		return nil, fmt.Errorf("failed to close video %s: %w", input.VideoPath, err)
	}

	s.logger.Debug("extraction finished",
		zap.Int("slides", result.SlideCount),
		zap.Int("frames", result.FramesProcessed),
	)
	fmt.Fprintf(s.output, "Extracted %d slides.\n", result.SlideCount)

	return result, nil
}

// step handles one frame: with no previous frame, or when the frames differ
// enough, the current frame's slide region is written out
func (s *Service) step(prev, curr slide.Frame, offset, index int, outputDir string) (SlideRecord, bool, error) {
	similarity := 0.0
	if prev != nil {
		var err error
		similarity, err = s.backend.Changes.Similarity(prev, curr)
		if err != nil {
			return SlideRecord{}, false, fmt.Errorf("failed to compare frame %d: %w", offset, err)
		}
		if !s.params.IsChange(similarity) {
			return SlideRecord{}, false, nil
		}
	}

	region, err := s.backend.Regions.DetectRegion(curr)
	if err != nil {
		return SlideRecord{}, false, fmt.Errorf("failed to detect slide region in frame %d: %w", offset, err)
	}

	path := filepath.Join(outputDir, slide.FileName(index, offset, s.backend.Writer.Format()))
	if err := s.backend.Writer.WriteSlide(curr, region, path); err != nil {
		return SlideRecord{}, false, fmt.Errorf("failed to write slide %s: %w", path, err)
	}

	s.logger.Debug("slide written",
		zap.Int("slide", index),
		zap.Int("frame_offset", offset),
		zap.Float64("similarity", similarity),
		zap.Stringer("region", region),
		zap.String("path", path),
	)

	return SlideRecord{
		Index:       index,
		FrameOffset: offset,
		Region:      region,
		Similarity:  similarity,
		Path:        path,
	}, true, nil
}
