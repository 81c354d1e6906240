package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ImageStore serves generated images from a local directory. Filenames are
// flattened to their base name so requests cannot escape the directory.
type ImageStore struct {
	basePath string
}

// NewImageStore creates the image directory if needed.
func NewImageStore(basePath string) (*ImageStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, fmt.Errorf("image store path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &ImageStore{basePath: basePath}, nil
}

// BasePath returns the directory images are stored in.
func (s *ImageStore) BasePath() string {
	return s.basePath
}

// Open returns the image file and its modification time for serving.
func (s *ImageStore) Open(filename string) (*os.File, time.Time, error) {
	name, err := safeFilename(filename)
	if err != nil {
		return nil, time.Time{}, err
	}
	f, err := os.Open(filepath.Join(s.basePath, name))
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("open image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, time.Time{}, fmt.Errorf("stat image: %w", err)
	}
	return f, info.ModTime(), nil
}

// Read returns the image bytes, typically for archival.
func (s *ImageStore) Read(filename string) ([]byte, error) {
	name, err := safeFilename(filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, name))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// Delete removes a stored image. Missing files are not an error.
func (s *ImageStore) Delete(filename string) error {
	name, err := safeFilename(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.basePath, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func safeFilename(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid image filename %q", name)
	}
	return name, nil
}
