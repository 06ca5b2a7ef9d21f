package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/imagefile"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Backend names
const (
	BackendFFmpeg = "ffmpeg"
	BackendOpenCV = "opencv"
)

// DefaultPath is where the config file is looked up when --config is not given
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Backend   string          `yaml:"backend" env:"SLIDES_BACKEND"`
	Detection DetectionConfig `yaml:"detection"`
	Output    OutputConfig    `yaml:"output"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Logging   LoggingConfig   `yaml:"logging"`
	Google    GoogleConfig    `yaml:"google"`
}

// DetectionConfig contains change and region detection parameters
type DetectionConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"SLIDES_SIMILARITY_THRESHOLD"`
	WhiteLower          []int   `yaml:"white_lower,flow"` // R, G, B
	WhiteUpper          []int   `yaml:"white_upper,flow"` // R, G, B
}

// OutputConfig contains slide image settings
type OutputConfig struct {
	Format      string  `yaml:"format" env:"SLIDES_FORMAT"`
	JPEGQuality int     `yaml:"jpeg_quality" env:"SLIDES_JPEG_QUALITY"`
	WebPQuality float64 `yaml:"webp_quality" env:"SLIDES_WEBP_QUALITY"` // 0 keeps WebP lossless
}

// FFmpegConfig contains paths to the ffmpeg executables
type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path" env:"SLIDES_FFMPEG_PATH"`
	FFprobePath string `yaml:"ffprobe_path" env:"SLIDES_FFPROBE_PATH"`
}

// LoggingConfig contains diagnostic log settings
type LoggingConfig struct {
	Level    string `yaml:"level" env:"SLIDES_LOG_LEVEL"`
	Encoding string `yaml:"encoding" env:"SLIDES_LOG_ENCODING"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file" env:"SLIDES_GOOGLE_CREDENTIALS"`
	TokenFile       string `yaml:"token_file" env:"SLIDES_GOOGLE_TOKEN"`
	SlidesFolderID  string `yaml:"slides_folder_id" env:"SLIDES_DRIVE_FOLDER_ID"`
}

// Default returns a configuration with every default filled in
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads path if it exists, then applies environment overrides
// and defaults. A missing file is not an error.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg, err = &Config{}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()

	return cfg, nil
}

// ApplyEnv overrides fields from SLIDES_* environment variables.
// Unset variables leave the field alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// ApplyDefaults fills zero values with their defaults
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFFmpeg
	}
	if c.Detection.SimilarityThreshold == 0 {
		c.Detection.SimilarityThreshold = slide.DefaultSimilarityThreshold
	}
	if len(c.Detection.WhiteLower) == 0 {
		c.Detection.WhiteLower = []int{slide.DefaultWhiteLow, slide.DefaultWhiteLow, slide.DefaultWhiteLow}
	}
	if len(c.Detection.WhiteUpper) == 0 {
		c.Detection.WhiteUpper = []int{slide.DefaultWhiteHigh, slide.DefaultWhiteHigh, slide.DefaultWhiteHigh}
	}
	if c.Output.Format == "" {
		c.Output.Format = string(slide.DefaultFormat)
	}
	if c.Output.JPEGQuality == 0 {
		c.Output.JPEGQuality = imagefile.DefaultJPEGQuality
	}
	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = "console"
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = "credentials.json"
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = "token.json"
	}
}

// Validate checks that the configuration can drive an extraction
func (c *Config) Validate() error {
	if c.Backend != BackendFFmpeg && c.Backend != BackendOpenCV {
		return fmt.Errorf("unknown backend %q: use %s or %s", c.Backend, BackendFFmpeg, BackendOpenCV)
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := c.OutputFormat(); err != nil {
		return err
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality %d must be between 1 and 100", c.Output.JPEGQuality)
	}
	if c.Output.WebPQuality < 0 || c.Output.WebPQuality > 100 {
		return fmt.Errorf("webp_quality %g must be between 0 and 100", c.Output.WebPQuality)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q: use debug, info, warn or error", c.Logging.Level)
	}
	switch c.Logging.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log encoding %q: use console or json", c.Logging.Encoding)
	}
	return nil
}

// Params converts the detection section into validated detection parameters
func (c *Config) Params() (slide.DetectionParams, error) {
	lower, err := toRGB("white_lower", c.Detection.WhiteLower)
	if err != nil {
		return slide.DetectionParams{}, err
	}
	upper, err := toRGB("white_upper", c.Detection.WhiteUpper)
	if err != nil {
		return slide.DetectionParams{}, err
	}

	params := slide.DetectionParams{
		SimilarityThreshold: c.Detection.SimilarityThreshold,
		WhiteLower:          lower,
		WhiteUpper:          upper,
	}
	if err := params.Validate(); err != nil {
		return slide.DetectionParams{}, err
	}
	return params, nil
}

// OutputFormat parses the configured output format
func (c *Config) OutputFormat() (slide.Format, error) {
	return slide.ParseFormat(c.Output.Format)
}

func toRGB(name string, v []int) (slide.RGB, error) {
	if len(v) != 3 {
		return slide.RGB{}, fmt.Errorf("%w: %s needs 3 values, got %d", slide.ErrInvalidDetection, name, len(v))
	}
	for _, c := range v {
		if c < 0 || c > 255 {
			return slide.RGB{}, fmt.Errorf("%w: %s value %d out of range 0-255", slide.ErrInvalidDetection, name, c)
		}
	}
	return slide.RGB{R: uint8(v[0]), G: uint8(v[1]), B: uint8(v[2])}, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
