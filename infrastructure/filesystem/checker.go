package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"slide-extractor/domain/slide"
)

// Checker implements slide.DirEnsurer and slide file discovery using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates the directory and any missing parents
func (c *Checker) EnsureDir(path string) error {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	return os.MkdirAll(path, 0755)
}

// ListSlides returns the slide files in dir ordered by slide index then frame offset.
// Name holds the full path. Files not named like extracted slides are ignored.
func (c *Checker) ListSlides(dir string) ([]slide.SlideFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []slide.SlideFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file, ok := slide.ParseFileName(entry.Name())
		if !ok {
			continue
		}
		file.Name = filepath.Join(dir, entry.Name())
		files = append(files, file)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].SlideIndex != files[j].SlideIndex {
			return files[i].SlideIndex < files[j].SlideIndex
		}
		return files[i].FrameOffset < files[j].FrameOffset
	})

	return files, nil
}

// Ensure Checker implements slide.DirEnsurer
var _ slide.DirEnsurer = (*Checker)(nil)
