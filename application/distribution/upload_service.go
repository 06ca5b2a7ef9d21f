package distribution

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"slide-extractor/domain/distribution"
	"slide-extractor/domain/slide"

	"go.uber.org/zap"
)

// SlideLister finds extracted slide files in a directory
type SlideLister interface {
	ListSlides(dir string) ([]slide.SlideFile, error)
}

// UploadService handles slide upload operations to Google Drive
type UploadService struct {
	driveClient distribution.DriveClient
	lister      SlideLister
	folderID    string
	output      io.Writer
	logger      *zap.Logger
}

// NewUploadService creates a new upload service
func NewUploadService(client distribution.DriveClient, lister SlideLister, folderID string, output io.Writer) *UploadService {
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		driveClient: client,
		lister:      lister,
		folderID:    folderID,
		output:      output,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the structured logger
func (s *UploadService) SetLogger(logger *zap.Logger) {
	s.logger = logger
}

// SlideUpload pairs a local slide with its uploaded copy
type SlideUpload struct {
	File   slide.SlideFile
	Result *distribution.UploadResult
}

// UploadSlides uploads every extracted slide in dir in slide order.
// The first failure stops the run; slides uploaded before it are returned.
func (s *UploadService) UploadSlides(ctx context.Context, dir string) ([]SlideUpload, error) {
	if s.folderID == "" {
		return nil, distribution.ErrNoFolder
	}

	files, err := s.lister.ListSlides(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		fmt.Fprintf(s.output, "No slides found in %s\n", dir)
		return nil, nil
	}

	fmt.Fprintf(s.output, "Uploading %d slides to Google Drive...\n", len(files))

	var uploads []SlideUpload
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return uploads, err
		}

		result, err := s.uploadAndShare(ctx, file.Name, file.Format.MimeType())
		if err != nil {
			return uploads, err
		}
		fmt.Fprintf(s.output, "  %s\n      %s\n", result.FileName, result.ShareableURL)
		s.logger.Debug("slide uploaded",
			zap.String("file", result.FileName),
			zap.String("file_id", result.FileID),
			zap.Int64("size", result.Size),
		)

		uploads = append(uploads, SlideUpload{File: file, Result: result})
	}

	return uploads, nil
}

// uploadAndShare uploads a file and sets public sharing permissions
func (s *UploadService) uploadAndShare(ctx context.Context, filePath, mimeType string) (*distribution.UploadResult, error) {
	// Verify file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	fileName := filepath.Base(filePath)

	// Check for existing file with same name and delete if found
	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}
	if existing != nil {
		fmt.Fprintf(s.output, "  Replacing existing %s (%.1f KB)\n", existing.Name, float64(existing.Size)/1024)
		if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	req := distribution.UploadRequest{
		LocalPath: filePath,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  mimeType,
	}

	result, err := s.driveClient.UploadAndShare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	return result, nil
}
