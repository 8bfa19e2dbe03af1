// Package upload stores page images on disk and serves them back by URL.
package upload

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store writes uploaded files into a single directory. Uploading an existing
// filename overwrites it silently.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory files are written to, for static serving.
func (s *Store) Dir() string { return s.dir }

// CleanFilename strips any path components from filename and rejects names
// that would escape the storage directory.
func CleanFilename(filename string) (string, error) {
	filename = filepath.Base(filename)
	filename = strings.TrimSpace(filename)
	if strings.Contains(filename, "/") || strings.Contains(filename, `\`) {
		return "", errors.New("filename contains a slash")
	}
	if filename == "" || filename == "." || filename == ".." {
		return "", errors.New("filename is empty")
	}
	return filename, nil
}

// Save writes src under filename and returns the public URL path.
func (s *Store) Save(filename string, src io.Reader) (string, error) {
	name, err := CleanFilename(filename)
	if err != nil {
		return "", err
	}
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return "/images/" + name, nil
}
