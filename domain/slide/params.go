package slide

import "fmt"

// Default detection parameters
const (
	DefaultSimilarityThreshold = 0.9
	DefaultWhiteLow            = 200
	DefaultWhiteHigh           = 255
)

// RGB is an 8-bit colour triple used as an inclusive range bound
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// DetectionParams tunes change detection and slide region detection
type DetectionParams struct {
	// SimilarityThreshold is the ratio below which two frames count as different slides
	SimilarityThreshold float64

	// WhiteLower and WhiteUpper bound, per channel and inclusive, the pixels
	// considered part of a projected slide
	WhiteLower RGB
	WhiteUpper RGB
}

// DefaultParams returns the parameters the extractor runs with when nothing is configured
func DefaultParams() DetectionParams {
	return DetectionParams{
		SimilarityThreshold: DefaultSimilarityThreshold,
		WhiteLower:          RGB{DefaultWhiteLow, DefaultWhiteLow, DefaultWhiteLow},
		WhiteUpper:          RGB{DefaultWhiteHigh, DefaultWhiteHigh, DefaultWhiteHigh},
	}
}

// Validate checks the threshold lies in (0, 1] and the white band is not inverted
func (p DetectionParams) Validate() error {
	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		return fmt.Errorf("%w: similarity threshold %.3f must be in (0, 1]", ErrInvalidDetection, p.SimilarityThreshold)
	}
	if p.WhiteLower.R > p.WhiteUpper.R || p.WhiteLower.G > p.WhiteUpper.G || p.WhiteLower.B > p.WhiteUpper.B {
		return fmt.Errorf("%w: white lower bound %v exceeds upper bound %v", ErrInvalidDetection, p.WhiteLower, p.WhiteUpper)
	}
	return nil
}

// IsChange reports whether a similarity ratio marks a new slide
func (p DetectionParams) IsChange(similarity float64) bool {
	return similarity < p.SimilarityThreshold
}

// InWhiteBand reports whether a pixel falls inside the white band
func (p DetectionParams) InWhiteBand(r, g, b uint8) bool {
	return r >= p.WhiteLower.R && r <= p.WhiteUpper.R &&
		g >= p.WhiteLower.G && g <= p.WhiteUpper.G &&
		b >= p.WhiteLower.B && b <= p.WhiteUpper.B
}
