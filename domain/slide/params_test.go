package slide

import (
	"errors"
	"image"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.SimilarityThreshold != 0.9 {
		t.Errorf("expected threshold 0.9, got %f", p.SimilarityThreshold)
	}
	if p.WhiteLower != (RGB{200, 200, 200}) {
		t.Errorf("expected lower bound 200, got %v", p.WhiteLower)
	}
	if p.WhiteUpper != (RGB{255, 255, 255}) {
		t.Errorf("expected upper bound 255, got %v", p.WhiteUpper)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}
}

func TestDetectionParams_Validate(t *testing.T) {
	t.Run("rejects zero threshold", func(t *testing.T) {
		p := DefaultParams()
		p.SimilarityThreshold = 0
		if err := p.Validate(); !errors.Is(err, ErrInvalidDetection) {
			t.Errorf("expected ErrInvalidDetection, got %v", err)
		}
	})

	t.Run("rejects threshold above one", func(t *testing.T) {
		p := DefaultParams()
		p.SimilarityThreshold = 1.5
		if err := p.Validate(); !errors.Is(err, ErrInvalidDetection) {
			t.Errorf("expected ErrInvalidDetection, got %v", err)
		}
	})

	t.Run("rejects inverted band", func(t *testing.T) {
		p := DefaultParams()
		p.WhiteLower.G = 250
		p.WhiteUpper.G = 240
		if err := p.Validate(); !errors.Is(err, ErrInvalidDetection) {
			t.Errorf("expected ErrInvalidDetection, got %v", err)
		}
	})
}

func TestDetectionParams_IsChange(t *testing.T) {
	p := DefaultParams()
	if p.IsChange(1.0) {
		t.Error("identical frames must not count as a change")
	}
	if p.IsChange(0.9) {
		t.Error("similarity equal to the threshold must not count as a change")
	}
	if !p.IsChange(0.89) {
		t.Error("similarity below the threshold must count as a change")
	}
}

func TestDetectionParams_InWhiteBand(t *testing.T) {
	p := DefaultParams()
	if !p.InWhiteBand(200, 200, 200) {
		t.Error("lower bound is inclusive")
	}
	if !p.InWhiteBand(255, 255, 255) {
		t.Error("upper bound is inclusive")
	}
	if p.InWhiteBand(199, 255, 255) {
		t.Error("a single channel below the band excludes the pixel")
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity(0, 100); got != 1.0 {
		t.Errorf("expected 1.0, got %f", got)
	}
	if got := Similarity(100, 100); got != 0.0 {
		t.Errorf("expected 0.0, got %f", got)
	}
	if got := Similarity(25, 100); got != 0.75 {
		t.Errorf("expected 0.75, got %f", got)
	}
	if got := Similarity(0, 0); got != 1.0 {
		t.Errorf("expected empty frames to be fully similar, got %f", got)
	}
}

func TestRegion(t *testing.T) {
	t.Run("full frame", func(t *testing.T) {
		r := FullFrame(image.Pt(640, 480))
		if r != (Region{0, 0, 640, 480}) {
			t.Errorf("unexpected full frame region %v", r)
		}
		if r.Area() != 640*480 {
			t.Errorf("expected area %d, got %d", 640*480, r.Area())
		}
	})

	t.Run("rect round trip", func(t *testing.T) {
		r := Region{X: 10, Y: 20, Width: 30, Height: 40}
		if got := RegionFromRect(r.Rect()); got != r {
			t.Errorf("expected %v, got %v", r, got)
		}
		if r.String() != "30x40+10+20" {
			t.Errorf("unexpected string %s", r.String())
		}
	})

	t.Run("within frame", func(t *testing.T) {
		r := Region{X: 10, Y: 10, Width: 20, Height: 20}
		if !r.Within(image.Pt(30, 30)) {
			t.Error("expected region inside 30x30 frame")
		}
		if r.Within(image.Pt(25, 25)) {
			t.Error("expected region to overflow 25x25 frame")
		}
	})
}
