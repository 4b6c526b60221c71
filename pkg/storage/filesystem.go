package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./artifacts"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve artifacts directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create artifacts directory: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// Save writes data to the relative path under the base dir.
func (s *LocalStorage) Save(relPath string, data []byte) (string, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare artifact directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("publish artifact file: %w", err)
	}
	return relPath, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	path, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	return file, nil
}

// Exists reports whether relPath is present.
func (s *LocalStorage) Exists(relPath string) bool {
	path, err := s.resolve(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// DeleteDir removes a directory of artifacts if present.
func (s *LocalStorage) DeleteDir(relDir string) error {
	path, err := s.resolve(relDir)
	if err != nil {
		return err
	}
	if path == s.baseDir {
		return fmt.Errorf("refusing to delete artifacts root")
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete artifact directory: %w", err)
	}
	return nil
}

// resolve joins relPath under the base dir and rejects paths escaping it.
func (s *LocalStorage) resolve(relPath string) (string, error) {
	if relPath == "" || filepath.IsAbs(relPath) {
		return "", fmt.Errorf("invalid artifact path %q", relPath)
	}
	path := filepath.Join(s.baseDir, filepath.Clean(relPath))
	if path != s.baseDir && !strings.HasPrefix(path, s.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid artifact path %q", relPath)
	}
	return path, nil
}
