package drive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"slide-extractor/domain/distribution"

	"google.golang.org/api/drive/v3"
)

// mockDriveService is a mock implementation for testing
type mockDriveService struct {
	files          []*drive.File
	shouldFail     bool
	failError      error
	permissionErr  error
	lastQuery      string
	uploaded       []string
	permissions    []*drive.Permission
	deletedFileIDs []string
	webViewLink    string
}

func (m *mockDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	m.lastQuery = query
	if m.shouldFail {
		return nil, m.failError
	}
	return m.files, nil
}

func (m *mockDriveService) UploadFile(ctx context.Context, fileName, mimeType, folderID, localPath string) (*drive.File, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	m.uploaded = append(m.uploaded, fileName)
	return &drive.File{
		Id:          "uploaded-file-id",
		Name:        fileName,
		MimeType:    mimeType,
		Size:        2048,
		WebViewLink: m.webViewLink,
	}, nil
}

func (m *mockDriveService) CreatePermission(ctx context.Context, fileID string, permission *drive.Permission) error {
	if m.permissionErr != nil {
		return m.permissionErr
	}
	m.permissions = append(m.permissions, permission)
	return nil
}

func (m *mockDriveService) DeleteFile(ctx context.Context, fileID string) error {
	if m.shouldFail {
		return m.failError
	}
	m.deletedFileIDs = append(m.deletedFileIDs, fileID)
	return nil
}

func newTestClient(t *testing.T, mock *mockDriveService) *Client {
	t.Helper()
	client, err := NewClient(context.Background(), "", WithDriveService(mock))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestClient_ListFiles(t *testing.T) {
	testTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mock      *mockDriveService
		wantCount int
		wantErr   bool
	}{
		{
			name: "lists files successfully",
			mock: &mockDriveService{
				files: []*drive.File{
					{Id: "file-1", Name: "result_slide00_frame0000.png", MimeType: "image/png", Size: 1000, CreatedTime: testTime.Format(time.RFC3339)},
					{Id: "file-2", Name: "result_slide01_frame0120.png", MimeType: "image/png", Size: 900, CreatedTime: testTime.Format(time.RFC3339)},
				},
			},
			wantCount: 2,
		},
		{
			name:      "returns empty list for empty folder",
			mock:      &mockDriveService{files: []*drive.File{}},
			wantCount: 0,
		},
		{
			name:    "handles API error",
			mock:    &mockDriveService{shouldFail: true, failError: fmt.Errorf("googleapi: Error 403: permission denied")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := newTestClient(t, tt.mock).ListFiles(context.Background(), "slides-folder")

			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "failed to list files") {
					t.Errorf("expected list error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(files) != tt.wantCount {
				t.Errorf("expected %d files, got %d", tt.wantCount, len(files))
			}
			if tt.wantCount > 0 && !files[0].CreatedTime.Equal(testTime) {
				t.Errorf("expected CreatedTime %v, got %v", testTime, files[0].CreatedTime)
			}
		})
	}
}

func TestClient_FindFileByName(t *testing.T) {
	t.Run("finds exact match", func(t *testing.T) {
		mock := &mockDriveService{files: []*drive.File{
			{Id: "a", Name: "result_slide00_frame0000.png", Size: 10},
		}}

		info, err := newTestClient(t, mock).FindFileByName(context.Background(), "folder", "result_slide00_frame0000.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info == nil || info.ID != "a" {
			t.Fatalf("expected file a, got %+v", info)
		}
		if !strings.Contains(mock.lastQuery, "name = 'result_slide00_frame0000.png'") {
			t.Errorf("unexpected query %s", mock.lastQuery)
		}
	})

	t.Run("returns nil when absent", func(t *testing.T) {
		info, err := newTestClient(t, &mockDriveService{}).FindFileByName(context.Background(), "folder", "missing.png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info != nil {
			t.Errorf("expected nil, got %+v", info)
		}
	})

	t.Run("escapes quotes", func(t *testing.T) {
		mock := &mockDriveService{}
		newTestClient(t, mock).FindFileByName(context.Background(), "folder", "it's.png")
		if !strings.Contains(mock.lastQuery, `it\'s.png`) {
			t.Errorf("expected escaped name in query, got %s", mock.lastQuery)
		}
	})
}

func TestClient_UploadAndShare(t *testing.T) {
	req := distribution.UploadRequest{
		LocalPath: "/out/result_slide00_frame0000.png",
		FileName:  "result_slide00_frame0000.png",
		FolderID:  "folder",
		MimeType:  "image/png",
	}

	t.Run("uploads and shares", func(t *testing.T) {
		mock := &mockDriveService{webViewLink: "https://drive.google.com/file/d/uploaded-file-id/view?usp=drivesdk"}

		result, err := newTestClient(t, mock).UploadAndShare(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ShareableURL != mock.webViewLink {
			t.Errorf("expected web view link, got %s", result.ShareableURL)
		}
		if len(mock.permissions) != 1 || mock.permissions[0].Type != "anyone" || mock.permissions[0].Role != "reader" {
			t.Errorf("expected anyone/reader permission, got %+v", mock.permissions)
		}
	})

	t.Run("falls back to a constructed URL", func(t *testing.T) {
		result, err := newTestClient(t, &mockDriveService{}).UploadAndShare(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.ShareableURL != "https://drive.google.com/file/d/uploaded-file-id/view" {
			t.Errorf("unexpected URL %s", result.ShareableURL)
		}
	})

	t.Run("share failure", func(t *testing.T) {
		mock := &mockDriveService{permissionErr: errors.New("forbidden")}
		if _, err := newTestClient(t, mock).UploadAndShare(context.Background(), req); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("missing folder", func(t *testing.T) {
		bad := req
		bad.FolderID = ""
		_, err := newTestClient(t, &mockDriveService{}).UploadAndShare(context.Background(), bad)
		if !errors.Is(err, distribution.ErrNoFolder) {
			t.Errorf("expected ErrNoFolder, got %v", err)
		}
	})
}

func TestClient_DeletePermanently(t *testing.T) {
	mock := &mockDriveService{}
	if err := newTestClient(t, mock).DeletePermanently(context.Background(), "file-9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mock.deletedFileIDs) != 1 || mock.deletedFileIDs[0] != "file-9" {
		t.Errorf("expected file-9 to be deleted, got %v", mock.deletedFileIDs)
	}

	failing := &mockDriveService{shouldFail: true, failError: errors.New("boom")}
	if err := newTestClient(t, failing).DeletePermanently(context.Background(), "file-9"); err == nil {
		t.Error("expected an error")
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantZero bool
	}{
		{"valid RFC3339 time", "2026-03-14T10:00:00Z", false},
		{"invalid time format", "invalid", true},
		{"empty string", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseTime(tt.input)
			if tt.wantZero != result.IsZero() {
				t.Errorf("expected zero %v, got %v", tt.wantZero, result)
			}
		})
	}
}
