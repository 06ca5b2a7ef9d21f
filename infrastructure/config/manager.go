package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// ConfigManager reads and updates individual settings by dotted key
// (for example "detection.similarity_threshold")
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Setting is one key and its current value
type Setting struct {
	Key   string
	Value string
}

type setting struct {
	get func(*Config) string
	set func(*Config, string) error
}

func stringSetting(field func(*Config) *string) setting {
	return setting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

func intSetting(field func(*Config) *int) setting {
	return setting{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatSetting(field func(*Config) *float64) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
			}
			*field(c) = f
			return nil
		},
	}
}

// bandSetting handles "R,G,B" triples
func bandSetting(field func(*Config) *[]int) setting {
	return setting{
		get: func(c *Config) string {
			parts := make([]string, len(*field(c)))
			for i, n := range *field(c) {
				parts[i] = strconv.Itoa(n)
			}
			return strings.Join(parts, ",")
		},
		set: func(c *Config, v string) error {
			parts := strings.Split(v, ",")
			if len(parts) != 3 {
				return fmt.Errorf("%w: %q must be R,G,B", ErrInvalidValue, v)
			}
			band := make([]int, 3)
			for i, p := range parts {
				n, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil {
					return fmt.Errorf("%w: %q must be R,G,B", ErrInvalidValue, v)
				}
				band[i] = n
			}
			*field(c) = band
			return nil
		},
	}
}

var settings = map[string]setting{
	"backend":                        stringSetting(func(c *Config) *string { return &c.Backend }),
	"detection.similarity_threshold": floatSetting(func(c *Config) *float64 { return &c.Detection.SimilarityThreshold }),
	"detection.white_lower":          bandSetting(func(c *Config) *[]int { return &c.Detection.WhiteLower }),
	"detection.white_upper":          bandSetting(func(c *Config) *[]int { return &c.Detection.WhiteUpper }),
	"output.format":                  stringSetting(func(c *Config) *string { return &c.Output.Format }),
	"output.jpeg_quality":            intSetting(func(c *Config) *int { return &c.Output.JPEGQuality }),
	"output.webp_quality":            floatSetting(func(c *Config) *float64 { return &c.Output.WebPQuality }),
	"ffmpeg.ffmpeg_path":             stringSetting(func(c *Config) *string { return &c.FFmpeg.FFmpegPath }),
	"ffmpeg.ffprobe_path":            stringSetting(func(c *Config) *string { return &c.FFmpeg.FFprobePath }),
	"logging.level":                  stringSetting(func(c *Config) *string { return &c.Logging.Level }),
	"logging.encoding":               stringSetting(func(c *Config) *string { return &c.Logging.Encoding }),
	"google.credentials_file":        stringSetting(func(c *Config) *string { return &c.Google.CredentialsFile }),
	"google.token_file":              stringSetting(func(c *Config) *string { return &c.Google.TokenFile }),
	"google.slides_folder_id":        stringSetting(func(c *Config) *string { return &c.Google.SlidesFolderID }),
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List returns every setting in key order
func (m *ConfigManager) List() []Setting {
	result := make([]Setting, 0, len(settings))
	for _, k := range Keys() {
		result = append(result, Setting{Key: k, Value: settings[k].get(m.config)})
	}
	return result
}

// Get returns the current value of key
func (m *ConfigManager) Get(key string) (string, error) {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return s.get(m.config), nil
}

// Apply updates key in memory and validates the result.
// The config is unchanged when validation fails.
func (m *ConfigManager) Apply(key, value string) error {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	updated := *m.config
	if err := s.set(&updated, strings.TrimSpace(value)); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	*m.config = updated
	return nil
}

// Set applies key and saves the file
func (m *ConfigManager) Set(key, value string) error {
	if err := m.Apply(key, value); err != nil {
		return err
	}
	return Save(m.config, m.configPath)
}

// Save writes the managed config to its file
func (m *ConfigManager) Save() error {
	return Save(m.config, m.configPath)
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
