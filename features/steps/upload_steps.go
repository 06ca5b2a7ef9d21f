//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"slide-extractor/cmd"
	"slide-extractor/domain/distribution"

	"github.com/cucumber/godog"
	"go.uber.org/zap"
)

// MockDriveClient implements distribution.DriveClient over an in-memory folder
type MockDriveClient struct {
	files    map[string]distribution.FileInfo
	uploaded []string
	deleted  []string
	nextID   int
}

func NewMockDriveClient() *MockDriveClient {
	return &MockDriveClient{files: make(map[string]distribution.FileInfo)}
}

func (m *MockDriveClient) ListFiles(ctx context.Context, folderID string) ([]distribution.FileInfo, error) {
	var files []distribution.FileInfo
	for _, f := range m.files {
		files = append(files, f)
	}
	return files, nil
}

func (m *MockDriveClient) FindFileByName(ctx context.Context, folderID, name string) (*distribution.FileInfo, error) {
	for _, f := range m.files {
		if f.Name == name {
			found := f
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MockDriveClient) UploadAndShare(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	m.nextID++
	id := fmt.Sprintf("file-%d", m.nextID)
	m.files[id] = distribution.FileInfo{ID: id, Name: req.FileName, MimeType: req.MimeType}
	m.uploaded = append(m.uploaded, req.FileName)
	return &distribution.UploadResult{
		FileID:       id,
		FileName:     req.FileName,
		ShareableURL: fmt.Sprintf("https://drive.google.com/file/d/%s/view", id),
	}, nil
}

func (m *MockDriveClient) DeletePermanently(ctx context.Context, fileID string) error {
	if _, ok := m.files[fileID]; !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	delete(m.files, fileID)
	m.deleted = append(m.deleted, fileID)
	return nil
}

type uploadContext struct {
	slidesDir string
	client    *MockDriveClient
	output    bytes.Buffer
	err       error
}

var SharedUploadContext = &uploadContext{}

func InitializeUploadScenario(ctx *godog.ScenarioContext) {
	testCtx := SharedUploadContext

	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "upload-test-*")
		if err != nil {
			return c, err
		}
		testCtx.slidesDir = dir
		testCtx.client = NewMockDriveClient()
		testCtx.output.Reset()
		testCtx.err = nil
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if testCtx.slidesDir != "" {
			os.RemoveAll(testCtx.slidesDir)
		}
		return c, nil
	})

	ctx.Step(`^a slide directory containing:$`, testCtx.aSlideDirectoryContaining)
	ctx.Step(`^Drive already has "([^"]*)" in the folder$`, testCtx.driveAlreadyHas)
	ctx.Step(`^I upload the slides to folder "([^"]*)"$`, testCtx.iUploadTheSlidesToFolder)
	ctx.Step(`^(\d+) files? should be uploaded to Drive$`, testCtx.filesShouldBeUploaded)
	ctx.Step(`^(\d+) files? should be deleted from Drive$`, testCtx.filesShouldBeDeleted)
	ctx.Step(`^the upload output should contain "([^"]*)"$`, testCtx.theUploadOutputShouldContain)
}

func (u *uploadContext) aSlideDirectoryContaining(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		name := row.Cells[0].Value
		if err := os.WriteFile(filepath.Join(u.slidesDir, name), []byte("data"), 0644); err != nil {
			return err
		}
	}
	return nil
}

func (u *uploadContext) driveAlreadyHas(name string) error {
	u.client.files["existing"] = distribution.FileInfo{ID: "existing", Name: name, Size: 2048}
	return nil
}

func (u *uploadContext) iUploadTheSlidesToFolder(folderID string) error {
	u.err = cmd.RunUploadWithDependencies(context.Background(), u.client, folderID, u.slidesDir, zap.NewNop(), &u.output)
	return u.err
}

func (u *uploadContext) filesShouldBeUploaded(expected int) error {
	if len(u.client.uploaded) != expected {
		return fmt.Errorf("expected %d uploads, got %d: %v", expected, len(u.client.uploaded), u.client.uploaded)
	}
	return nil
}

func (u *uploadContext) filesShouldBeDeleted(expected int) error {
	if len(u.client.deleted) != expected {
		return fmt.Errorf("expected %d deletions, got %d", expected, len(u.client.deleted))
	}
	return nil
}

func (u *uploadContext) theUploadOutputShouldContain(expected string) error {
	if !strings.Contains(u.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got %q", expected, u.output.String())
	}
	return nil
}
