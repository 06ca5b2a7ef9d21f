//go:build opencv

package opencv

import (
	"bytes"
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/imagefile"
)

// bgrFrame builds a width x height frame of one colour with an optional
// rectangle painted in another
func bgrFrame(t *testing.T, width, height int, bg [3]byte, rect image.Rectangle, fg [3]byte) *Frame {
	t.Helper()
	buf := make([]byte, 0, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if image.Pt(x, y).In(rect) {
				buf = append(buf, fg[:]...)
			} else {
				buf = append(buf, bg[:]...)
			}
		}
	}
	f, err := FromBGR(buf, width, height)
	if err != nil {
		t.Fatalf("failed to build frame: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

var (
	black = [3]byte{0, 0, 0}
	white = [3]byte{255, 255, 255}
)

func TestChangeDetector_Similarity(t *testing.T) {
	d := NewChangeDetector()

	t.Run("identical frames", func(t *testing.T) {
		a := bgrFrame(t, 8, 8, black, image.Rectangle{}, white)
		b := bgrFrame(t, 8, 8, black, image.Rectangle{}, white)
		sim, err := d.Similarity(a, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sim != 1.0 {
			t.Errorf("expected 1.0, got %f", sim)
		}
	})

	t.Run("quarter of the frame differs", func(t *testing.T) {
		a := bgrFrame(t, 8, 8, black, image.Rectangle{}, white)
		b := bgrFrame(t, 8, 8, black, image.Rect(0, 0, 4, 4), white)
		sim, err := d.Similarity(a, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sim != 0.75 {
			t.Errorf("expected 0.75, got %f", sim)
		}
	})

	t.Run("size mismatch", func(t *testing.T) {
		a := bgrFrame(t, 8, 8, black, image.Rectangle{}, white)
		b := bgrFrame(t, 4, 8, black, image.Rectangle{}, white)
		if _, err := d.Similarity(a, b); !errors.Is(err, slide.ErrFrameSizeMismatch) {
			t.Errorf("expected ErrFrameSizeMismatch, got %v", err)
		}
	})
}

func TestRegionDetector_DetectRegion(t *testing.T) {
	d := NewRegionDetector(slide.DefaultParams())

	t.Run("no white area yields full frame", func(t *testing.T) {
		f := bgrFrame(t, 16, 12, black, image.Rectangle{}, white)
		region, err := d.DetectRegion(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if region != slide.FullFrame(image.Pt(16, 12)) {
			t.Errorf("expected full frame, got %v", region)
		}
	})

	t.Run("white block is located", func(t *testing.T) {
		f := bgrFrame(t, 16, 12, black, image.Rect(3, 2, 13, 9), white)
		region, err := d.DetectRegion(f)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := slide.Region{X: 3, Y: 2, Width: 10, Height: 7}
		if region != want {
			t.Errorf("expected %v, got %v", want, region)
		}
	})
}

func TestSlideWriter_WriteSlide(t *testing.T) {
	for _, format := range []slide.Format{slide.FormatPNG, slide.FormatJPEG, slide.FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			encoder, err := imagefile.NewEncoder(format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			w := NewSlideWriter(encoder)
			f := bgrFrame(t, 16, 12, black, image.Rect(3, 2, 13, 9), white)

			path := filepath.Join(t.TempDir(), slide.FileName(0, 0, format))
			if err := w.WriteSlide(f, slide.Region{X: 3, Y: 2, Width: 10, Height: 7}, path); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("expected file to be written: %v", err)
			}
			if len(data) == 0 {
				t.Error("expected non-empty file")
			}
			if format == slide.FormatPNG && !bytes.HasPrefix(data, []byte("\x89PNG")) {
				t.Error("expected PNG signature")
			}
		})
	}

	t.Run("region outside frame", func(t *testing.T) {
		encoder, _ := imagefile.NewEncoder(slide.FormatPNG)
		f := bgrFrame(t, 4, 4, black, image.Rectangle{}, white)
		err := NewSlideWriter(encoder).WriteSlide(f, slide.Region{X: 2, Y: 2, Width: 4, Height: 4}, filepath.Join(t.TempDir(), "x.png"))
		if err == nil {
			t.Error("expected an error")
		}
	})
}

func TestOpener_OpenMissing(t *testing.T) {
	_, err := NewOpener().Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	if !errors.Is(err, slide.ErrOpenVideo) {
		t.Errorf("expected ErrOpenVideo, got %v", err)
	}
}
