package backend

import (
	"errors"
	"testing"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/config"
	"slide-extractor/infrastructure/ffmpeg"
	"slide-extractor/infrastructure/imagefile"
	"slide-extractor/infrastructure/raster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FFmpeg(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Format = "jpg"

	b, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, config.BackendFFmpeg, b.Name)
	assert.IsType(t, &ffmpeg.Opener{}, b.Opener)
	assert.IsType(t, &raster.ChangeDetector{}, b.Changes)
	assert.IsType(t, &raster.RegionDetector{}, b.Regions)
	assert.Equal(t, slide.FormatJPEG, b.Writer.Format())
}

func TestNew_Errors(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Backend = "gstreamer"
		_, err := New(cfg)
		assert.True(t, errors.Is(err, slide.ErrBackendUnavailable))
	})

	t.Run("invalid detection", func(t *testing.T) {
		cfg := config.Default()
		cfg.Detection.SimilarityThreshold = -1
		_, err := New(cfg)
		assert.True(t, errors.Is(err, slide.ErrInvalidDetection))
	})

	t.Run("unknown format", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.Format = "gif"
		_, err := New(cfg)
		assert.True(t, errors.Is(err, slide.ErrUnsupportedFormat))
	})

	t.Run("webp quality", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.Format = "webp"
		cfg.Output.WebPQuality = 75
		b, err := New(cfg)
		require.NoError(t, err)
		assert.Equal(t, slide.FormatWebP, b.Writer.Format())
	})

	t.Run("jpeg quality", func(t *testing.T) {
		cfg := config.Default()
		cfg.Output.JPEGQuality = 120
		_, err := New(cfg)
		assert.Error(t, err)
	})
}

func TestRaster(t *testing.T) {
	encoder, err := imagefile.NewEncoder(slide.FormatPNG)
	require.NoError(t, err)

	opener := raster.NewMemoryOpener()
	b := Raster(opener, slide.DefaultParams(), encoder)

	assert.Same(t, opener, b.Opener)
	assert.Equal(t, slide.FormatPNG, b.Writer.Format())
}
