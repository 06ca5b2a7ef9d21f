package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	appdist "slide-extractor/application/distribution"
	"slide-extractor/domain/distribution"
	"slide-extractor/infrastructure/drive"
	"slide-extractor/infrastructure/filesystem"
	"slide-extractor/infrastructure/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var uploadFolderID string

var uploadCmd = &cobra.Command{
	Use:   "upload <output_directory>",
	Short: "Upload extracted slides to Google Drive with public sharing",
	Long: `Upload every result_slide image in a directory to Google Drive and set public sharing.

Slides are uploaded in slide order. A file with the same name already in the
folder is replaced. Each slide is made accessible with "anyone with the link"
permission and its URL is printed.

The folder comes from --folder or google.slides_folder_id in the config.

Example:
  slide-extractor upload slides/
  slide-extractor upload slides/ --folder 1AbCdEfGhIjKlMnOp`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadFolderID, "folder", "", "Google Drive folder ID (defaults to google.slides_folder_id)")
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	folderID := uploadFolderID
	if folderID == "" {
		folderID = cfg.Google.SlidesFolderID
	}
	if folderID == "" {
		return fmt.Errorf("%w: pass --folder or run 'slide-extractor setup'", distribution.ErrNoFolder)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Create drive client with OAuth
	ctx := cmd.Context()
	client, err := drive.NewClientWithOAuth(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile,
		logging.WithComponent(logger, "drive"))
	if err != nil {
		return fmt.Errorf("failed to create Google Drive client: %w", err)
	}

	return RunUploadWithDependencies(ctx, client, folderID, args[0], logger, os.Stdout)
}

// RunUploadWithDependencies runs the upload command with injected dependencies (for testing)
func RunUploadWithDependencies(
	ctx context.Context,
	driveClient distribution.DriveClient,
	folderID string,
	slidesDir string,
	logger *zap.Logger,
	output io.Writer,
) error {
	service := appdist.NewUploadService(driveClient, filesystem.NewChecker(), folderID, output)
	service.SetLogger(logging.WithComponent(logger, "upload"))

	uploads, err := service.UploadSlides(ctx, slidesDir)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	if len(uploads) > 0 {
		fmt.Fprintf(output, "Upload complete! %d slides shared.\n", len(uploads))
	}
	return nil
}
