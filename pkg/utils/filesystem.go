// Package utils provides utility functions
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem is the slice of the filesystem the build stages touch.
// Stages take it as a dependency so tests can substitute a fake.
type FileSystem interface {
	Exists(path string) bool
	IsDirectory(path string) bool
	IsRegularFile(path string) bool
	RemoveAll(path string) error
}

// OSFileSystem implements FileSystem on the real filesystem
type OSFileSystem struct{}

var _ FileSystem = OSFileSystem{}

// NewFileSystem returns the real filesystem
func NewFileSystem() OSFileSystem {
	return OSFileSystem{}
}

// Exists checks if a path exists
func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDirectory checks if a path is a directory
func (OSFileSystem) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsRegularFile checks if a path is a regular file (following symlinks)
func (OSFileSystem) IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// RemoveAll removes a path and all its contents. A missing path is not an error.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// NormalizePath returns the absolute, cleaned form of path, expanding a
// leading ~/ to the home directory.
func NormalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

// IsWithin reports whether target lies strictly inside root.
// Both paths must be absolute and cleaned.
func IsWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return !filepath.IsAbs(rel)
}

// EnsureDirectory ensures a directory exists
func EnsureDirectory(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFileAtomic writes data through a temp file and renames it into place
func WriteFileAtomic(path string, data []byte) error {
	if err := EnsureDirectory(filepath.Dir(path)); err != nil {
		return err
	}

	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return err
	}
	return os.Rename(tempFile, path)
}
