package raster

import (
	"slide-extractor/domain/slide"
)

// RegionDetector implements slide.RegionDetector for raster frames
type RegionDetector struct {
	params slide.DetectionParams
}

// NewRegionDetector creates a region detector using the params' white band
func NewRegionDetector(params slide.DetectionParams) *RegionDetector {
	return &RegionDetector{params: params}
}

// DetectRegion masks the frame to the white band, traces the external contours
// and returns the bounding rectangle of the one enclosing the largest area.
// Contours are ranked in the order OpenCV reports them (last discovered first)
// and the first maximal one wins. With no white pixels the full frame is returned.
func (d *RegionDetector) DetectRegion(f slide.Frame) (slide.Region, error) {
	frame, err := asFrame(f)
	if err != nil {
		return slide.Region{}, err
	}

	contours := externalContours(d.whiteMask(frame))
	if len(contours) == 0 {
		return slide.FullFrame(frame.Size()), nil
	}

	best := len(contours) - 1
	bestArea := contours[best].area()
	for i := len(contours) - 2; i >= 0; i-- {
		if a := contours[i].area(); a > bestArea {
			best, bestArea = i, a
		}
	}

	return slide.RegionFromRect(contours[best].boundingRect()), nil
}

func (d *RegionDetector) whiteMask(frame *Frame) *mask {
	size := frame.Size()
	m := newMask(size.X, size.Y)
	img := frame.Image
	for y := 0; y < size.Y; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+size.X*4]
		for x := 0; x < size.X; x++ {
			if d.params.InWhiteBand(row[x*4], row[x*4+1], row[x*4+2]) {
				m.set(x, y)
			}
		}
	}
	return m
}

// Ensure RegionDetector implements slide.RegionDetector
var _ slide.RegionDetector = (*RegionDetector)(nil)
