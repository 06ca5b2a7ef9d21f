package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slide-extractor/infrastructure/config"
)

// mockPrompter answers prompts from queues and records the messages
type mockPrompter struct {
	inputs   []string
	confirms []bool
	asked    []string
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	if len(m.inputs) == 0 {
		return defaultValue, nil
	}
	answer := m.inputs[0]
	m.inputs = m.inputs[1:]
	return answer, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.asked = append(m.asked, message)
	if len(m.confirms) == 0 {
		return defaultValue, nil
	}
	answer := m.confirms[0]
	m.confirms = m.confirms[1:]
	return answer, nil
}

// failingPrompter simulates Ctrl-C at the first prompt
type failingPrompter struct{}

func (failingPrompter) Input(string, string) (string, error) { return "", fmt.Errorf("interrupt") }
func (failingPrompter) Confirm(string, bool) (bool, error)   { return false, fmt.Errorf("interrupt") }

func TestRunSetupWithPrompter(t *testing.T) {
	t.Run("accepting every default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config", "config.yaml")
		var out bytes.Buffer

		if err := RunSetupWithPrompter(&mockPrompter{}, path, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("expected config to be written: %v", err)
		}
		if cfg.Detection.SimilarityThreshold != 0.9 || cfg.Output.Format != "png" || cfg.Backend != "ffmpeg" {
			t.Errorf("expected defaults, got %+v", cfg)
		}
		if !strings.Contains(out.String(), "Configuration saved to") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("custom answers", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		prompter := &mockPrompter{
			inputs: []string{
				"0.85",        // threshold
				"190,190,190", // white lower
				"",            // white upper
				"jpeg",        // format
				"80",          // jpeg quality
				"ffmpeg",      // backend
				"/usr/local/bin/ffmpeg",
				"/usr/local/bin/ffprobe",
				"creds.json",
				"tok.json",
				"folder-xyz",
			},
			confirms: []bool{true}, // configure Drive
		}

		if err := RunSetupWithPrompter(prompter, path, &bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Detection.SimilarityThreshold != 0.85 {
			t.Errorf("expected 0.85, got %f", cfg.Detection.SimilarityThreshold)
		}
		if cfg.Detection.WhiteLower[0] != 190 || cfg.Detection.WhiteUpper[0] != 255 {
			t.Errorf("unexpected band %v-%v", cfg.Detection.WhiteLower, cfg.Detection.WhiteUpper)
		}
		if cfg.Output.Format != "jpeg" || cfg.Output.JPEGQuality != 80 {
			t.Errorf("unexpected output %+v", cfg.Output)
		}
		if cfg.FFmpeg.FFmpegPath != "/usr/local/bin/ffmpeg" {
			t.Errorf("unexpected ffmpeg path %s", cfg.FFmpeg.FFmpegPath)
		}
		if cfg.Google.SlidesFolderID != "folder-xyz" || cfg.Google.TokenFile != "tok.json" {
			t.Errorf("unexpected google section %+v", cfg.Google)
		}
	})

	t.Run("webp asks for quality", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		prompter := &mockPrompter{inputs: []string{"", "", "", "webp", "70"}}

		if err := RunSetupWithPrompter(prompter, path, &bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Output.WebPQuality != 70 {
			t.Errorf("expected webp quality 70, got %v", cfg.Output.WebPQuality)
		}
	})

	t.Run("opencv skips ffmpeg paths", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		prompter := &mockPrompter{inputs: []string{"", "", "", "png", "opencv"}}

		if err := RunSetupWithPrompter(prompter, path, &bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, msg := range prompter.asked {
			if strings.Contains(msg, "ffmpeg?") {
				t.Errorf("did not expect ffmpeg prompt, got %q", msg)
			}
		}
	})

	t.Run("invalid answer", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		prompter := &mockPrompter{inputs: []string{"2.5"}}

		err := RunSetupWithPrompter(prompter, path, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "detection.similarity_threshold") {
			t.Fatalf("expected threshold error, got %v", err)
		}
		if _, statErr := os.Stat(path); statErr == nil {
			t.Error("expected no config to be written")
		}
	})

	t.Run("declining overwrite keeps the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("backend: opencv\n"), 0644); err != nil {
			t.Fatal(err)
		}
		var out bytes.Buffer

		if err := RunSetupWithPrompter(&mockPrompter{confirms: []bool{false}}, path, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "backend: opencv\n" {
			t.Errorf("expected file untouched, got %q", data)
		}
		if !strings.Contains(out.String(), "Setup cancelled.") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("overwrite offers current values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("backend: opencv\noutput:\n  format: webp\n"), 0644); err != nil {
			t.Fatal(err)
		}

		if err := RunSetupWithPrompter(&mockPrompter{confirms: []bool{true}}, path, &bytes.Buffer{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Backend != "opencv" || cfg.Output.Format != "webp" {
			t.Errorf("expected existing values to be kept, got backend %s format %s", cfg.Backend, cfg.Output.Format)
		}
	})

	t.Run("cancelled prompt", func(t *testing.T) {
		err := RunSetupWithPrompter(failingPrompter{}, filepath.Join(t.TempDir(), "config.yaml"), &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "prompt cancelled") {
			t.Errorf("expected prompt cancelled, got %v", err)
		}
	})
}
