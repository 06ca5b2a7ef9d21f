package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StreamInfo describes the first video stream of a file
type StreamInfo struct {
	Width      int
	Height     int
	FrameCount int // 0 when neither the container nor the duration tells
	FrameRate  float64
}

// probeOutput is the JSON ffprobe prints for -show_entries stream=...
type probeOutput struct {
	Streams []struct {
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		NbFrames   string `json:"nb_frames"`
		RFrameRate string `json:"r_frame_rate"`
		Duration   string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the dimensions and frame count of the first video stream
func (o *Opener) Probe(ctx context.Context, path string) (StreamInfo, error) {
	out, err := o.runner.Output(ctx, o.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,nb_frames,r_frame_rate,duration:format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbe(out)
}

func parseProbe(out []byte) (StreamInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return StreamInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return StreamInfo{}, fmt.Errorf("no video stream found")
	}

	s := probe.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return StreamInfo{}, fmt.Errorf("invalid video dimensions %dx%d", s.Width, s.Height)
	}

	info := StreamInfo{
		Width:     s.Width,
		Height:    s.Height,
		FrameRate: parseRate(s.RFrameRate),
	}

	// Containers without a frame count get the same duration * fps estimate OpenCV uses
	if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
		info.FrameCount = n
	} else {
		duration := parseFloat(s.Duration)
		if duration <= 0 {
			duration = parseFloat(probe.Format.Duration)
		}
		if duration > 0 && info.FrameRate > 0 {
			info.FrameCount = int(math.Round(duration * info.FrameRate))
		}
	}

	return info, nil
}

// parseRate parses ffprobe rationals such as "30000/1001"
func parseRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
