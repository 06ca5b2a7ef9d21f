package cmd

import (
	"errors"
	"fmt"
	"os"

	"slide-extractor/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through the detection thresholds, the output
image format, the decoding backend and the Google Drive upload settings.
Current values (or the defaults) are offered as answers.`,
	Args: cobra.NoArgs,
	// The config file may not exist yet, or may be the thing being fixed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out OutputWriter) error {
	cfg := config.Default()

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
		// Offer the current values as defaults when the file is readable
		if existing, err := config.Load(configPath); err == nil {
			existing.ApplyDefaults()
			if existing.Validate() == nil {
				cfg = existing
			}
		}
	}

	fmt.Fprintln(out, "Welcome to slide-extractor setup!")
	fmt.Fprintln(out)

	mgr := config.NewConfigManager(cfg, configPath)

	// Detection section
	if err := promptSettings(prompter, mgr, []settingPrompt{
		{"detection.similarity_threshold", "Similarity below which a frame starts a new slide (0-1]?"},
		{"detection.white_lower", "Lower bound of slide white as R,G,B?"},
		{"detection.white_upper", "Upper bound of slide white as R,G,B?"},
	}); err != nil {
		return err
	}

	// Output section
	if err := promptSettings(prompter, mgr, []settingPrompt{
		{"output.format", "Slide image format (png, jpeg, webp, bmp, tiff)?"},
	}); err != nil {
		return err
	}
	switch cfg.Output.Format {
	case "jpeg", "jpg":
		if err := promptSettings(prompter, mgr, []settingPrompt{
			{"output.jpeg_quality", "JPEG quality (1-100)?"},
		}); err != nil {
			return err
		}
	case "webp":
		if err := promptSettings(prompter, mgr, []settingPrompt{
			{"output.webp_quality", "WebP quality (1-100, 0 for lossless)?"},
		}); err != nil {
			return err
		}
	}

	// Backend section
	if err := promptSettings(prompter, mgr, []settingPrompt{
		{"backend", "Decoding backend (ffmpeg, opencv)?"},
	}); err != nil {
		return err
	}
	if cfg.Backend == config.BackendFFmpeg {
		if err := promptSettings(prompter, mgr, []settingPrompt{
			{"ffmpeg.ffmpeg_path", "Path to ffmpeg?"},
			{"ffmpeg.ffprobe_path", "Path to ffprobe?"},
		}); err != nil {
			return err
		}
	}

	// Google section
	if err := promptGoogle(prompter, mgr); err != nil {
		return err
	}

	// Save configuration
	if err := mgr.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

// settingPrompt asks for one config key
type settingPrompt struct {
	key     string
	message string
}

func promptSettings(prompter Prompter, mgr *config.ConfigManager, prompts []settingPrompt) error {
	for _, p := range prompts {
		current, err := mgr.Get(p.key)
		if err != nil {
			return err
		}
		answer, err := prompter.Input(p.message, current)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if answer == "" {
			answer = current
		}
		if err := mgr.Apply(p.key, answer); err != nil {
			if errors.Is(err, config.ErrInvalidValue) {
				return fmt.Errorf("%s: %w", p.key, err)
			}
			return err
		}
	}
	return nil
}

func promptGoogle(prompter Prompter, mgr *config.ConfigManager) error {
	upload, err := prompter.Confirm("Configure Google Drive upload?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !upload {
		return nil
	}

	return promptSettings(prompter, mgr, []settingPrompt{
		{"google.credentials_file", "Path to Google OAuth credentials file?"},
		{"google.token_file", "Where should the OAuth token be stored?"},
		{"google.slides_folder_id", "Google Drive folder ID for slides?"},
	})
}
