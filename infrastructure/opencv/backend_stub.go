//go:build !opencv

package opencv

import (
	"fmt"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/imagefile"
)

// Name identifies this backend in configuration and logs
const Name = "opencv"

// NewBackend returns an error indicating the OpenCV backend is not compiled in
func NewBackend(params slide.DetectionParams, encoder *imagefile.Encoder) (slide.Backend, error) {
	return slide.Backend{}, fmt.Errorf("%w: opencv requires a build with '-tags=opencv' and install OpenCV/GoCV", slide.ErrBackendUnavailable)
}
