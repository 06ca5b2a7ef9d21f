package slide

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Format is the image format slides are written in
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tiff"
)

// DefaultFormat is the format used when none is configured
const DefaultFormat = FormatPNG

var formatExtensions = map[Format]string{
	FormatPNG:  "png",
	FormatJPEG: "jpg",
	FormatWebP: "webp",
	FormatBMP:  "bmp",
	FormatTIFF: "tiff",
}

var formatMimeTypes = map[Format]string{
	FormatPNG:  "image/png",
	FormatJPEG: "image/jpeg",
	FormatWebP: "image/webp",
	FormatBMP:  "image/bmp",
	FormatTIFF: "image/tiff",
}

// ParseFormat parses a format name, accepting "jpg" and "tif" as aliases.
// An empty name selects DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultFormat, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	case "bmp":
		return FormatBMP, nil
	case "tiff", "tif":
		return FormatTIFF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Extension returns the file extension for the format, without the dot
func (f Format) Extension() string {
	return formatExtensions[f]
}

// MimeType returns the MIME type of files in this format
func (f Format) MimeType() string {
	return formatMimeTypes[f]
}

// FileName returns the output file name for a slide:
// result_slide<NN>_frame<MMMM>.<ext> with NN and MMMM zero padded.
// Wider numbers grow naturally past the padding.
func FileName(slideIndex, frameOffset int, format Format) string {
	return fmt.Sprintf("result_slide%02d_frame%04d.%s", slideIndex, frameOffset, format.Extension())
}

var fileNameRegex = regexp.MustCompile(`^result_slide(\d{2,})_frame(\d{4,})\.([a-z]+)$`)

// SlideFile describes a slide file name parsed back into its parts
type SlideFile struct {
	Name        string
	SlideIndex  int
	FrameOffset int
	Format      Format
}

// ParseFileName parses a name produced by FileName
func ParseFileName(name string) (SlideFile, bool) {
	matches := fileNameRegex.FindStringSubmatch(name)
	if matches == nil {
		return SlideFile{}, false
	}

	format, err := ParseFormat(matches[3])
	if err != nil {
		return SlideFile{}, false
	}

	slideIndex, err := strconv.Atoi(matches[1])
	if err != nil {
		return SlideFile{}, false
	}
	frameOffset, err := strconv.Atoi(matches[2])
	if err != nil {
		return SlideFile{}, false
	}

	return SlideFile{
		Name:        name,
		SlideIndex:  slideIndex,
		FrameOffset: frameOffset,
		Format:      format,
	}, true
}
