package slide

import (
	"fmt"
	"image"
)

// Region is the rectangle delimiting a detected slide within a frame
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// FullFrame returns the region covering a whole frame of the given size
func FullFrame(size image.Point) Region {
	return Region{X: 0, Y: 0, Width: size.X, Height: size.Y}
}

// RegionFromRect converts an image rectangle to a Region
func RegionFromRect(r image.Rectangle) Region {
	r = r.Canon()
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Rect returns the region as an image rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Area returns the number of pixels covered by the region
func (r Region) Area() int {
	return r.Width * r.Height
}

// Empty reports whether the region covers no pixels
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether the region lies inside a frame of the given size
func (r Region) Within(size image.Point) bool {
	return r.Rect().In(image.Rect(0, 0, size.X, size.Y))
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}
