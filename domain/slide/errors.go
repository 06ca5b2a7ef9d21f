package slide

import "errors"

// Errors shared by the extraction pipeline and its adapters
var (
	ErrOpenVideo          = errors.New("cannot open video file")
	ErrEndOfStream        = errors.New("end of video stream")
	ErrFrameSizeMismatch  = errors.New("frames differ in size")
	ErrUnsupportedFrame   = errors.New("unsupported frame type")
	ErrInvalidFrameRange  = errors.New("invalid frame range")
	ErrUnsupportedFormat  = errors.New("unsupported image format")
	ErrInvalidDetection   = errors.New("invalid detection parameters")
	ErrBackendUnavailable = errors.New("backend not available")
)
