// Package backend assembles the slide.Backend named in the configuration.
package backend

import (
	"fmt"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/config"
	"slide-extractor/infrastructure/ffmpeg"
	"slide-extractor/infrastructure/imagefile"
	"slide-extractor/infrastructure/opencv"
	"slide-extractor/infrastructure/raster"
)

// Option is a functional option for New
type Option func(*options)

type options struct {
	runner ffmpeg.CommandRunner
}

// WithCommandRunner sets the command runner for the ffmpeg backend (for testing)
func WithCommandRunner(runner ffmpeg.CommandRunner) Option {
	return func(o *options) {
		o.runner = runner
	}
}

// New returns the backend selected by cfg.Backend
func New(cfg *config.Config, opts ...Option) (slide.Backend, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	params, err := cfg.Params()
	if err != nil {
		return slide.Backend{}, err
	}
	format, err := cfg.OutputFormat()
	if err != nil {
		return slide.Backend{}, err
	}
	encoderOpts := []imagefile.EncoderOption{imagefile.WithJPEGQuality(cfg.Output.JPEGQuality)}
	if cfg.Output.WebPQuality > 0 {
		encoderOpts = append(encoderOpts, imagefile.WithLossyWebP(float32(cfg.Output.WebPQuality)))
	}
	encoder, err := imagefile.NewEncoder(format, encoderOpts...)
	if err != nil {
		return slide.Backend{}, err
	}

	switch cfg.Backend {
	case config.BackendFFmpeg:
		openerOpts := []ffmpeg.OpenerOption{
			ffmpeg.WithFFmpegPath(cfg.FFmpeg.FFmpegPath),
			ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath),
		}
		if o.runner != nil {
			openerOpts = append(openerOpts, ffmpeg.WithCommandRunner(o.runner))
		}
		b := Raster(ffmpeg.NewOpener(openerOpts...), params, encoder)
		b.Name = config.BackendFFmpeg
		return b, nil

	case config.BackendOpenCV:
		return opencv.NewBackend(params, encoder)
	}

	return slide.Backend{}, fmt.Errorf("%w: %q", slide.ErrBackendUnavailable, cfg.Backend)
}

// Raster pairs any opener producing raster frames with the pure-Go detectors
func Raster(opener slide.VideoOpener, params slide.DetectionParams, encoder *imagefile.Encoder) slide.Backend {
	return slide.Backend{
		Name:    "raster",
		Opener:  opener,
		Changes: raster.NewChangeDetector(),
		Regions: raster.NewRegionDetector(params),
		Writer:  raster.NewSlideWriter(encoder),
	}
}
