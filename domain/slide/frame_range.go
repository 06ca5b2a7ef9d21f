package slide

import "fmt"

// FrameRange is the half-open span [Start, End) of frames to process.
// End is -1 when the source does not report its length, in which case
// processing runs until the stream is exhausted.
type FrameRange struct {
	Start int
	End   int
}

// NewFrameRange resolves the requested range against the source's frame count.
// A negative end selects the total frame count.
func NewFrameRange(start, end, totalFrames int) (FrameRange, error) {
	if start < 0 {
		return FrameRange{}, fmt.Errorf("%w: start frame %d must not be negative", ErrInvalidFrameRange, start)
	}

	if end < 0 {
		end = totalFrames
		if totalFrames <= 0 {
			end = -1
		}
	}

	return FrameRange{Start: start, End: end}, nil
}

// Bounded reports whether the range has a known end
func (r FrameRange) Bounded() bool {
	return r.End >= 0
}

// Budget returns how many frames the range allows, or -1 when unbounded.
// An empty or inverted range has a budget of 0.
func (r FrameRange) Budget() int {
	if !r.Bounded() {
		return -1
	}
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Allows reports whether the frame at the given offset from Start is in range
func (r FrameRange) Allows(offset int) bool {
	if !r.Bounded() {
		return true
	}
	return offset < r.End-r.Start
}

func (r FrameRange) String() string {
	if !r.Bounded() {
		return fmt.Sprintf("[%d, end of stream)", r.Start)
	}
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}
