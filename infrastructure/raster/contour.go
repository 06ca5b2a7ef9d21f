package raster

import (
	"image"
	"math"
)

// directions lists the 8 neighbour offsets clockwise on screen, starting east
var directions = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const west = 4

// mask is a binary image
type mask struct {
	width  int
	height int
	bits   []bool
}

func newMask(width, height int) *mask {
	return &mask{width: width, height: height, bits: make([]bool, width*height)}
}

func (m *mask) at(p image.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= m.width || p.Y >= m.height {
		return false
	}
	return m.bits[p.Y*m.width+p.X]
}

func (m *mask) set(x, y int) {
	m.bits[y*m.width+x] = true
}

// contour is the outer border of one 8-connected foreground component
type contour []image.Point

// area returns the polygon area enclosed by the border, measured through pixel centres
func (c contour) area() float64 {
	if len(c) < 3 {
		return 0
	}
	sum := 0
	for i := range c {
		p, q := c[i], c[(i+1)%len(c)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// boundingRect returns the smallest rectangle containing every border pixel
func (c contour) boundingRect() image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Pt(1, 1))
	return r
}

// externalContours traces the outer border of every 8-connected component,
// in raster discovery order of each component's top-left pixel.
// Components sitting inside another component's hole are traced too; their
// enclosed area is always smaller than the enclosing border's.
func externalContours(m *mask) []contour {
	visited := make([]bool, len(m.bits))
	var contours []contour
	var stack []int

	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			i := y*m.width + x
			if !m.bits[i] || visited[i] {
				continue
			}

			contours = append(contours, traceBorder(m, image.Pt(x, y)))

			visited[i] = true
			stack = append(stack[:0], i)
			for len(stack) > 0 {
				j := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				p := image.Pt(j%m.width, j/m.width)
				for _, d := range directions {
					q := p.Add(d)
					if !m.at(q) {
						continue
					}
					k := q.Y*m.width + q.X
					if !visited[k] {
						visited[k] = true
						stack = append(stack, k)
					}
				}
			}
		}
	}

	return contours
}

// traceBorder follows the outer border of the component whose top-left pixel is
// start (its west neighbour is background), using Suzuki-Abe border following
func traceBorder(m *mask, start image.Point) contour {
	first := -1
	for k := 0; k < 8; k++ {
		d := (west + k) % 8
		if m.at(start.Add(directions[d])) {
			first = d
			break
		}
	}
	if first < 0 {
		return contour{start}
	}

	second := start.Add(directions[first])
	prev, cur := second, start
	limit := 4*len(m.bits) + 8

	var points contour
	for steps := 0; steps < limit; steps++ {
		back := directionTo(cur, prev)
		next := cur
		for k := 1; k <= 8; k++ {
			d := (back - k + 8) % 8
			if q := cur.Add(directions[d]); m.at(q) {
				next = q
				break
			}
		}

		points = append(points, cur)
		if next == start && cur == second {
			break
		}
		prev, cur = cur, next
	}

	return points
}

func directionTo(from, to image.Point) int {
	delta := to.Sub(from)
	for d, off := range directions {
		if off == delta {
			return d
		}
	}
	return west
}
