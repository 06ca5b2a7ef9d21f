package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"slide-extractor/application/extraction"
	"slide-extractor/domain/slide"
	"slide-extractor/infrastructure/backend"
	"slide-extractor/infrastructure/config"
	"slide-extractor/infrastructure/filesystem"
	"slide-extractor/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile       string
	cfg           *config.Config
	flagBackend   string
	flagThreshold float64
	flagFormat    string
	flagLogLevel  string
)

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

var rootCmd = &cobra.Command{
	Use:   "slide-extractor <video_path> <output_directory> [start_frame] [end_frame]",
	Short: "Extract presentation slides from a video",
	Long: `slide-extractor walks a recorded presentation frame by frame and writes
one image per slide change:

  - Consecutive frames are compared pixel by pixel
  - When they differ enough, the brightest rectangular area (the slide) is located
  - That area is cropped and written as result_slideNN_frameMMMM.png

start_frame defaults to 0 and end_frame (exclusive) to the last frame;
pass -1 as end_frame to keep the default.

Example:
  slide-extractor talk.mp4 slides/
  slide-extractor talk.mp4 slides/ 1500 9000
  slide-extractor talk.mp4 slides/ 1500 -1`,
	Args:              cobra.RangeArgs(2, 4),
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runExtract,
}

// DefaultBackendFactory builds the decoding backend used by the root command
var DefaultBackendFactory = func(cfg *config.Config) (slide.Backend, error) {
	return backend.New(cfg)
}

// Execute runs the root command, stopping cleanly on interrupt
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	rootCmd.SetArgs(escapeNegativeArgs(os.Args[1:]))
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "decoding backend: ffmpeg or opencv")
	rootCmd.PersistentFlags().Float64Var(&flagThreshold, "threshold", 0, "similarity below which a frame counts as a new slide (0-1]")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "slide image format: png, jpeg, webp, bmp or tiff")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "diagnostic log level: debug, info, warn or error")
}

// escapeNegativeArgs moves negative integer positionals such as an end_frame
// of -1 behind a "--" so they are not parsed as shorthand flags. Flags keep
// their values and stay in front. Sub-command invocations are left alone.
func escapeNegativeArgs(args []string) []string {
	var head, tail []string
	escaped, positional := false, false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return args
		case isNegativeInt(arg):
			escaped = true
			tail = append(tail, arg)
		case strings.HasPrefix(arg, "-"):
			head = append(head, arg)
			if flagTakesValue(arg) && i+1 < len(args) {
				i++
				head = append(head, args[i])
			}
		default:
			if !positional && isSubcommand(arg) {
				return args
			}
			positional = true
			if escaped {
				tail = append(tail, arg)
			} else {
				head = append(head, arg)
			}
		}
	}

	if !escaped {
		return args
	}
	return append(append(head, "--"), tail...)
}

func isNegativeInt(arg string) bool {
	if !strings.HasPrefix(arg, "-") {
		return false
	}
	_, err := strconv.Atoi(arg)
	return err == nil
}

// flagTakesValue reports whether a "--name" or "-n" token consumes the next argument
func flagTakesValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	name := strings.TrimLeft(arg, "-")
	f := rootCmd.PersistentFlags().Lookup(name)
	if f == nil {
		f = rootCmd.Flags().Lookup(name)
	}
	if f == nil && len(name) == 1 {
		f = rootCmd.PersistentFlags().ShorthandLookup(name)
	}
	return f != nil && f.NoOptDefVal == ""
}

func isSubcommand(arg string) bool {
	if arg == "help" || arg == "completion" {
		return true
	}
	for _, c := range rootCmd.Commands() {
		if c.Name() == arg || c.HasAlias(arg) {
			return true
		}
	}
	return false
}

// loadConfig reads the config file (optional), the environment and any flags
func loadConfig(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	loaded, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		loaded.Backend = flagBackend
	}
	if flags.Changed("threshold") {
		loaded.Detection.SimilarityThreshold = flagThreshold
	}
	if flags.Changed("format") {
		loaded.Output.Format = flagFormat
	}
	if flags.Changed("log-level") {
		loaded.Logging.Level = flagLogLevel
	}

	cfg = loaded
	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

func runExtract(cmd *cobra.Command, args []string) error {
	input, err := parseExtractArgs(args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	b, err := DefaultBackendFactory(cfg)
	if err != nil {
		return err
	}

	_, err = RunExtractWithBackend(cmd.Context(), b, params, input, logger, cmd.OutOrStdout())
	return err
}

// parseExtractArgs maps <video> <output> [start] [end] onto an extraction input
func parseExtractArgs(args []string) (extraction.ExtractInput, error) {
	input := extraction.ExtractInput{
		VideoPath: args[0],
		OutputDir: args[1],
		EndFrame:  -1,
	}

	if len(args) > 2 {
		start, err := strconv.Atoi(args[2])
		if err != nil {
			return input, fmt.Errorf("%w: start_frame %q is not an integer", slide.ErrInvalidFrameRange, args[2])
		}
		if start < 0 {
			return input, fmt.Errorf("%w: start_frame %d is negative", slide.ErrInvalidFrameRange, start)
		}
		input.StartFrame = start
	}

	if len(args) > 3 {
		end, err := strconv.Atoi(args[3])
		if err != nil {
			return input, fmt.Errorf("%w: end_frame %q is not an integer", slide.ErrInvalidFrameRange, args[3])
		}
		input.EndFrame = end
	}

	return input, nil
}

// newLogger builds the diagnostic logger, tagged with a run id
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		return nil, err
	}
	return logging.WithRunID(logger), nil
}

// RunExtractWithBackend runs one extraction with injected dependencies (for testing)
func RunExtractWithBackend(
	ctx context.Context,
	b slide.Backend,
	params slide.DetectionParams,
	input extraction.ExtractInput,
	logger *zap.Logger,
	output io.Writer,
) (*extraction.ExtractResult, error) {
	// Verify the decoder's tools are available if the opener supports it
	if verifiable, ok := b.Opener.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return nil, fmt.Errorf("%s verification failed: %w", b.Name, err)
		}
	}

	service := extraction.NewService(b, filesystem.NewChecker(),
		extraction.WithParams(params),
		extraction.WithOutput(output),
		extraction.WithLogger(logging.WithComponent(logger, "extraction")),
	)
	return service.Extract(ctx, input)
}
