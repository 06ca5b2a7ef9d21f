package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/raster"
)

// Opener implements slide.VideoOpener by decoding with ffmpeg into raw RGB frames
type Opener struct {
	ffmpegPath  string
	ffprobePath string
	runner      CommandRunner
}

// OpenerOption is a functional option for configuring Opener
type OpenerOption func(*Opener)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) OpenerOption {
	return func(o *Opener) {
		if path != "" {
			o.ffmpegPath = path
		}
	}
}

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) OpenerOption {
	return func(o *Opener) {
		if path != "" {
			o.ffprobePath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) OpenerOption {
	return func(o *Opener) {
		o.runner = runner
	}
}

// NewOpener creates a new FFmpeg-based video opener
func NewOpener(opts ...OpenerOption) *Opener {
	o := &Opener{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Open implements slide.VideoOpener. The file is probed immediately; decoding
// starts on the first Read so a Seek beforehand costs nothing.
func (o *Opener) Open(ctx context.Context, path string) (slide.VideoSource, error) {
	info, err := o.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", slide.ErrOpenVideo, path, err)
	}

	return &Source{
		opener: o,
		ctx:    ctx,
		path:   path,
		info:   info,
		buf:    make([]byte, info.Width*info.Height*3),
	}, nil
}

// VerifyInstalled checks that ffmpeg and ffprobe are available
func (o *Opener) VerifyInstalled(ctx context.Context) error {
	for _, bin := range []string{o.ffmpegPath, o.ffprobePath} {
		if _, err := o.runner.Output(ctx, bin, "-version"); err != nil {
			return fmt.Errorf("%s not found or not executable: %w", bin, err)
		}
	}
	return nil
}

// Source implements slide.VideoSource over an ffmpeg rawvideo pipe
type Source struct {
	opener *Opener
	ctx    context.Context
	path   string
	info   StreamInfo
	buf    []byte
	skip   int
	stream io.ReadCloser
	done   bool
}

// Info returns the probed stream description
func (s *Source) Info() StreamInfo {
	return s.info
}

// FrameCount implements slide.VideoSource
func (s *Source) FrameCount() int {
	return s.info.FrameCount
}

// Seek implements slide.VideoSource. Frames before the target are decoded and
// dropped, which keeps positioning exact for any codec.
func (s *Source) Seek(frame int) error {
	if frame < 0 {
		return fmt.Errorf("%w: seek to frame %d", slide.ErrInvalidFrameRange, frame)
	}
	if s.stream != nil {
		if err := s.stream.Close(); err != nil {
			return err
		}
		s.stream = nil
	}
	s.skip = frame
	s.done = false
	return nil
}

// Read implements slide.VideoSource
func (s *Source) Read() (slide.Frame, error) {
	if s.done {
		return nil, slide.ErrEndOfStream
	}

	if s.stream == nil {
		if err := s.start(); err != nil {
			return nil, err
		}
	}

	for ; s.skip > 0; s.skip-- {
		if err := s.readRaw(); err != nil {
			return nil, err
		}
	}

	if err := s.readRaw(); err != nil {
		return nil, err
	}
	frame, err := raster.FromRGB24(append([]byte(nil), s.buf...), s.info.Width, s.info.Height)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// Close implements slide.VideoSource
func (s *Source) Close() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	return err
}

func (s *Source) start() error {
	stream, err := s.opener.runner.Stream(s.ctx, s.opener.ffmpegPath,
		"-v", "error",
		"-nostdin",
		"-i", s.path,
		"-map", "0:v:0",
		"-vsync", "passthrough", // accepted by ffmpeg 4.x, which lacks -fps_mode
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
	if err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	s.stream = stream
	return nil
}

// readRaw fills buf with the next frame. A short or missing frame ends the
// stream, but only when the decoder exited cleanly.
func (s *Source) readRaw() error {
	_, err := io.ReadFull(s.stream, s.buf)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		s.done = true
		closeErr := s.stream.Close()
		s.stream = nil
		if closeErr != nil {
			return fmt.Errorf("ffmpeg failed decoding %s: %w", s.path, closeErr)
		}
		return slide.ErrEndOfStream
	}
	if err != nil {
		return fmt.Errorf("failed to read frame: %w", err)
	}
	return nil
}

// Ensure Opener implements slide.VideoOpener
var _ slide.VideoOpener = (*Opener)(nil)

// Ensure Source implements slide.VideoSource
var _ slide.VideoSource = (*Source)(nil)
