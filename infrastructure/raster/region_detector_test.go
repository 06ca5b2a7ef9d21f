package raster

import (
	"image"
	"testing"

	"slide-extractor/domain/slide"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionDetector_DetectRegion(t *testing.T) {
	d := NewRegionDetector(slide.DefaultParams())

	t.Run("no white pixels yields the full frame", func(t *testing.T) {
		region, err := d.DetectRegion(NewFrame(solid(64, 48, black)))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 0, Y: 0, Width: 64, Height: 48}, region)
	})

	t.Run("all white yields the full frame", func(t *testing.T) {
		region, err := d.DetectRegion(NewFrame(solid(32, 16, white)))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 0, Y: 0, Width: 32, Height: 16}, region)
	})

	t.Run("single bright rectangle", func(t *testing.T) {
		img := fill(solid(100, 80, gray), image.Rect(10, 15, 70, 60), white)
		region, err := d.DetectRegion(NewFrame(img))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 10, Y: 15, Width: 60, Height: 45}, region)
	})

	t.Run("largest of several rectangles wins", func(t *testing.T) {
		img := solid(100, 100, black)
		fill(img, image.Rect(2, 2, 12, 12), white)
		fill(img, image.Rect(30, 40, 90, 95), white)
		fill(img, image.Rect(60, 5, 95, 30), white)
		region, err := d.DetectRegion(NewFrame(img))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 30, Y: 40, Width: 60, Height: 55}, region)
	})

	t.Run("pixels outside the band are ignored", func(t *testing.T) {
		img := solid(50, 50, black)
		fill(img, image.Rect(0, 0, 40, 40), gray)
		fill(img, image.Rect(5, 5, 15, 15), white)
		region, err := d.DetectRegion(NewFrame(img))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 5, Y: 5, Width: 10, Height: 10}, region)
	})

	t.Run("ring encloses its hole", func(t *testing.T) {
		img := solid(60, 60, black)
		fill(img, image.Rect(10, 10, 50, 50), white)
		fill(img, image.Rect(14, 14, 46, 46), black)
		fill(img, image.Rect(20, 20, 40, 40), white)
		region, err := d.DetectRegion(NewFrame(img))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 10, Y: 10, Width: 40, Height: 40}, region)
	})

	t.Run("diagonal pixels are connected", func(t *testing.T) {
		img := solid(20, 20, black)
		fill(img, image.Rect(2, 2, 8, 8), white)
		fill(img, image.Rect(8, 8, 14, 14), white)
		region, err := d.DetectRegion(NewFrame(img))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 2, Y: 2, Width: 12, Height: 12}, region)
	})

	t.Run("equal areas resolve to the last discovered contour", func(t *testing.T) {
		img := solid(40, 40, black)
		fill(img, image.Rect(2, 2, 10, 10), white)
		fill(img, image.Rect(20, 25, 28, 33), white)
		region, err := d.DetectRegion(NewFrame(img))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 20, Y: 25, Width: 8, Height: 8}, region)
	})

	t.Run("custom band", func(t *testing.T) {
		params := slide.DefaultParams()
		params.WhiteLower = slide.RGB{R: 80, G: 80, B: 80}
		params.WhiteUpper = slide.RGB{R: 100, G: 100, B: 100}
		img := fill(solid(30, 30, black), image.Rect(3, 4, 13, 24), gray)
		region, err := NewRegionDetector(params).DetectRegion(NewFrame(img))
		require.NoError(t, err)
		assert.Equal(t, slide.Region{X: 3, Y: 4, Width: 10, Height: 20}, region)
	})
}

func TestContour_Area(t *testing.T) {
	tests := []struct {
		name string
		rect image.Rectangle
		want float64
	}{
		{"single pixel", image.Rect(3, 3, 4, 4), 0},
		{"line", image.Rect(0, 0, 5, 1), 0},
		{"2x2 block", image.Rect(0, 0, 2, 2), 1},
		{"10x5 block", image.Rect(4, 4, 14, 9), 36},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMask(20, 20)
			for y := tt.rect.Min.Y; y < tt.rect.Max.Y; y++ {
				for x := tt.rect.Min.X; x < tt.rect.Max.X; x++ {
					m.set(x, y)
				}
			}
			contours := externalContours(m)
			require.Len(t, contours, 1)
			assert.Equal(t, tt.want, contours[0].area())
			assert.Equal(t, tt.rect, contours[0].boundingRect())
		})
	}
}

func TestExternalContours_DiscoveryOrder(t *testing.T) {
	m := newMask(10, 10)
	m.set(7, 1)
	m.set(1, 2)
	m.set(4, 8)

	contours := externalContours(m)
	require.Len(t, contours, 3)
	assert.Equal(t, image.Pt(7, 1), contours[0][0])
	assert.Equal(t, image.Pt(1, 2), contours[1][0])
	assert.Equal(t, image.Pt(4, 8), contours[2][0])
}
