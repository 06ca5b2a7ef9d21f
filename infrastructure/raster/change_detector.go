package raster

import (
	"fmt"

	"slide-extractor/domain/slide"
)

// Fixed-point luma weights OpenCV uses for 8-bit BGR to gray conversion
const (
	grayShift = 14
	grayR     = 4899
	grayG     = 9617
	grayB     = 1868
	grayRound = 1 << (grayShift - 1)
)

// ChangeDetector implements slide.ChangeDetector for raster frames
type ChangeDetector struct{}

// NewChangeDetector creates a new raster change detector
func NewChangeDetector() *ChangeDetector {
	return &ChangeDetector{}
}

// Similarity computes the absolute difference of both frames, converts it to
// gray and returns 1 minus the fraction of non-zero gray pixels
func (d *ChangeDetector) Similarity(prev, curr slide.Frame) (float64, error) {
	a, err := asFrame(prev)
	if err != nil {
		return 0, err
	}
	b, err := asFrame(curr)
	if err != nil {
		return 0, err
	}

	size := a.Size()
	if size != b.Size() {
		return 0, fmt.Errorf("%w: %v vs %v", slide.ErrFrameSizeMismatch, size, b.Size())
	}

	differing := 0
	for y := 0; y < size.Y; y++ {
		rowA := a.Image.Pix[y*a.Image.Stride : y*a.Image.Stride+size.X*4]
		rowB := b.Image.Pix[y*b.Image.Stride : y*b.Image.Stride+size.X*4]
		for i := 0; i < len(rowA); i += 4 {
			if diffGray(rowA[i:i+3], rowB[i:i+3]) != 0 {
				differing++
			}
		}
	}

	return slide.Similarity(differing, size.X*size.Y), nil
}

// diffGray returns the gray value of the per-channel absolute difference of two RGB pixels
func diffGray(p, q []uint8) int {
	dr := absDiff(p[0], q[0])
	dg := absDiff(p[1], q[1])
	db := absDiff(p[2], q[2])
	return (dr*grayR + dg*grayG + db*grayB + grayRound) >> grayShift
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Ensure ChangeDetector implements slide.ChangeDetector
var _ slide.ChangeDetector = (*ChangeDetector)(nil)
