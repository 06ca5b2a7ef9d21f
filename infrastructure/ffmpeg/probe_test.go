package ffmpeg

import (
	"testing"
)

func TestParseFFprobeOutput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      StreamInfo
		wantError bool
	}{
		{
			name:  "frame count from container",
			input: `{"streams":[{"width":1280,"height":720,"nb_frames":"1500","r_frame_rate":"25/1"}]}`,
			want:  StreamInfo{Width: 1280, Height: 720, FrameCount: 1500, FrameRate: 25},
		},
		{
			name:  "estimated from stream duration",
			input: `{"streams":[{"width":640,"height":360,"nb_frames":"N/A","r_frame_rate":"30/1","duration":"10.0"}]}`,
			want:  StreamInfo{Width: 640, Height: 360, FrameCount: 300, FrameRate: 30},
		},
		{
			name:  "estimated from format duration",
			input: `{"streams":[{"width":640,"height":360,"r_frame_rate":"30000/1001"}],"format":{"duration":"2.002"}}`,
			want:  StreamInfo{Width: 640, Height: 360, FrameCount: 60, FrameRate: 30000.0 / 1001.0},
		},
		{
			name:  "unknown frame count",
			input: `{"streams":[{"width":640,"height":360,"r_frame_rate":"0/0"}]}`,
			want:  StreamInfo{Width: 640, Height: 360},
		},
		{
			name:      "no video stream",
			input:     `{"streams":[]}`,
			wantError: true,
		},
		{
			name:      "zero dimensions",
			input:     `{"streams":[{"width":0,"height":0}]}`,
			wantError: true,
		},
		{
			name:      "not json",
			input:     `Invalid data found when processing input`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbe([]byte(tt.input))
			if tt.wantError {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	if got := parseRate("25/1"); got != 25 {
		t.Errorf("expected 25, got %f", got)
	}
	if got := parseRate("0/0"); got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
	if got := parseRate("29.97"); got != 29.97 {
		t.Errorf("expected 29.97, got %f", got)
	}
}
