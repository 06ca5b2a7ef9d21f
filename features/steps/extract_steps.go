//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"slide-extractor/application/extraction"
	"slide-extractor/cmd"
	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/backend"
	"slide-extractor/infrastructure/imagefile"
	"slide-extractor/infrastructure/raster"

	"github.com/cucumber/godog"
	"go.uber.org/zap"
)

const videoPath = "talk.mp4"

type extractContext struct {
	tempDir   string
	outputDir string
	opener    *raster.MemoryOpener
	params    slide.DetectionParams
	output    bytes.Buffer
	result    *extraction.ExtractResult
	err       error
}

var SharedExtractContext = &extractContext{}

func InitializeExtractScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedExtractContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "extract-test-*")
		if err != nil {
			return c, err
		}
		testCtx.tempDir = tempDir
		testCtx.outputDir = filepath.Join(tempDir, "slides")
		testCtx.opener = raster.NewMemoryOpener()
		testCtx.params = slide.DefaultParams()
		testCtx.output.Reset()
		testCtx.result = nil
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^the detection threshold is ([0-9.]+)$`, testCtx.theDetectionThresholdIs)
	ctx.Step(`^a (\d+) frame video alternating black and white frames$`, testCtx.aVideoAlternatingBlackAndWhite)
	ctx.Step(`^a (\d+) frame video of one static colour$`, testCtx.aVideoOfOneStaticColour)
	ctx.Step(`^a (\d+) frame video of a white (\d+)x(\d+) slide at (\d+),(\d+) that changes on frame (\d+)$`, testCtx.aVideoOfAWhiteSlide)
	ctx.Step(`^I extract slides from the video$`, testCtx.iExtractSlidesFromTheVideo)
	ctx.Step(`^I extract slides from frame (\d+) to frame (\d+)$`, testCtx.iExtractSlidesFromFrameToFrame)
	ctx.Step(`^I extract slides from a video that does not exist$`, testCtx.iExtractSlidesFromAMissingVideo)
	ctx.Step(`^(\d+) slide files? should be written$`, testCtx.slideFilesShouldBeWritten)
	ctx.Step(`^the output should be "([^"]*)"$`, testCtx.theOutputShouldBe)
	ctx.Step(`^the first slide file should be "([^"]*)"$`, testCtx.theFirstSlideFileShouldBe)
	ctx.Step(`^the last slide file should be "([^"]*)"$`, testCtx.theLastSlideFileShouldBe)
	ctx.Step(`^the output directory should exist$`, testCtx.theOutputDirectoryShouldExist)
	ctx.Step(`^every slide image should be (\d+)x(\d+) pixels$`, testCtx.everySlideImageShouldBe)
	ctx.Step(`^I should receive an error about opening the video$`, testCtx.iShouldReceiveAnOpenError)
	ctx.Step(`^no output should be printed$`, testCtx.noOutputShouldBePrinted)
}

func filled(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func (e *extractContext) theDetectionThresholdIs(threshold float64) error {
	e.params.SimilarityThreshold = threshold
	return e.params.Validate()
}

func (e *extractContext) aVideoAlternatingBlackAndWhite(count int) error {
	frames := make([]image.Image, count)
	for i := range frames {
		if i%2 == 0 {
			frames[i] = filled(32, 24, color.Black)
		} else {
			frames[i] = filled(32, 24, color.White)
		}
	}
	e.opener.Add(videoPath, frames...)
	return nil
}

func (e *extractContext) aVideoOfOneStaticColour(count int) error {
	frames := make([]image.Image, count)
	for i := range frames {
		frames[i] = filled(32, 24, color.RGBA{R: 40, G: 80, B: 120, A: 255})
	}
	e.opener.Add(videoPath, frames...)
	return nil
}

// aVideoOfAWhiteSlide draws the same white rectangle on every frame and
// darkens the background from changeAt onwards
func (e *extractContext) aVideoOfAWhiteSlide(count, width, height, x, y, changeAt int) error {
	frames := make([]image.Image, count)
	slideRect := image.Rect(x, y, x+width, y+height)
	for i := range frames {
		background := color.RGBA{R: 128, G: 128, B: 128, A: 255}
		if i >= changeAt {
			background = color.RGBA{R: 30, G: 30, B: 30, A: 255}
		}
		img := filled(x+width+30, y+height+25, background)
		draw.Draw(img, slideRect, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
		frames[i] = img
	}
	e.opener.Add(videoPath, frames...)
	return nil
}

func (e *extractContext) run(path string, start, end int) error {
	encoder, err := imagefile.NewEncoder(slide.FormatPNG)
	if err != nil {
		return err
	}
	b := backend.Raster(e.opener, e.params, encoder)

	e.result, e.err = cmd.RunExtractWithBackend(context.Background(), b, e.params,
		extraction.ExtractInput{VideoPath: path, OutputDir: e.outputDir, StartFrame: start, EndFrame: end},
		zap.NewNop(), &e.output)
	return nil
}

func (e *extractContext) iExtractSlidesFromTheVideo() error {
	if err := e.run(videoPath, 0, -1); err != nil {
		return err
	}
	return e.err
}

func (e *extractContext) iExtractSlidesFromFrameToFrame(start, end int) error {
	if err := e.run(videoPath, start, end); err != nil {
		return err
	}
	return e.err
}

func (e *extractContext) iExtractSlidesFromAMissingVideo() error {
	return e.run("missing.mp4", 0, -1)
}

func (e *extractContext) slideFiles() ([]string, error) {
	entries, err := os.ReadDir(e.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if _, ok := slide.ParseFileName(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (e *extractContext) slideFilesShouldBeWritten(expected int) error {
	names, err := e.slideFiles()
	if err != nil {
		return err
	}
	if len(names) != expected {
		return fmt.Errorf("expected %d slide files, got %d: %v", expected, len(names), names)
	}
	if e.result == nil || e.result.SlideCount != expected {
		return fmt.Errorf("expected result to report %d slides", expected)
	}
	return nil
}

func (e *extractContext) theOutputShouldBe(expected string) error {
	if e.output.String() != expected+"\n" {
		return fmt.Errorf("expected output %q, got %q", expected, e.output.String())
	}
	return nil
}

func (e *extractContext) theFirstSlideFileShouldBe(expected string) error {
	names, err := e.slideFiles()
	if err != nil {
		return err
	}
	if len(names) == 0 || names[0] != expected {
		return fmt.Errorf("expected first slide %s, got %v", expected, names)
	}
	return nil
}

func (e *extractContext) theLastSlideFileShouldBe(expected string) error {
	names, err := e.slideFiles()
	if err != nil {
		return err
	}
	if len(names) == 0 || names[len(names)-1] != expected {
		return fmt.Errorf("expected last slide %s, got %v", expected, names)
	}
	return nil
}

func (e *extractContext) theOutputDirectoryShouldExist() error {
	info, err := os.Stat(e.outputDir)
	if err != nil {
		return fmt.Errorf("output directory missing: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", e.outputDir)
	}
	return nil
}

func (e *extractContext) everySlideImageShouldBe(width, height int) error {
	names, err := e.slideFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		f, err := os.Open(filepath.Join(e.outputDir, name))
		if err != nil {
			return err
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", name, err)
		}
		if cfg.Width != width || cfg.Height != height {
			return fmt.Errorf("expected %s to be %dx%d, got %dx%d", name, width, height, cfg.Width, cfg.Height)
		}
	}
	return nil
}

func (e *extractContext) iShouldReceiveAnOpenError() error {
	if !errors.Is(e.err, slide.ErrOpenVideo) {
		return fmt.Errorf("expected an open error, got %v", e.err)
	}
	return nil
}

func (e *extractContext) noOutputShouldBePrinted() error {
	if e.output.Len() != 0 {
		return fmt.Errorf("expected no output, got %q", e.output.String())
	}
	return nil
}
