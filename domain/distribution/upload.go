package distribution

import (
	"errors"
	"fmt"
)

// ErrNoFolder is returned when no Drive folder is configured for uploads
var ErrNoFolder = errors.New("no Google Drive folder configured")

// UploadRequest contains the parameters needed to upload a file to Google Drive
type UploadRequest struct {
	LocalPath string // Full path to the local file
	FileName  string // Target filename in Google Drive
	FolderID  string // Target folder ID in Google Drive
	MimeType  string // MIME type of the file
}

// Validate checks the request has everything the upload needs
func (r UploadRequest) Validate() error {
	if r.FolderID == "" {
		return ErrNoFolder
	}
	if r.LocalPath == "" || r.FileName == "" {
		return fmt.Errorf("upload request needs a local path and a file name")
	}
	return nil
}

// UploadResult contains the result of a successful upload
type UploadResult struct {
	FileID       string // Google Drive file ID
	FileName     string // Name of the uploaded file
	ShareableURL string // URL for sharing the file
	Size         int64  // Size of the uploaded file in bytes
}
