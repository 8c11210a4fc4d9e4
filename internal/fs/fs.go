package fs

import (
	"errors"
	"os"
)

// ErrNotExist is returned when a file does not exist
var ErrNotExist = errors.New("file does not exist")

// FileSystem abstracts the read operations key loaders need, so tests can run
// against an in-memory implementation
type FileSystem interface {
	// ReadFile reads the entire file
	ReadFile(name string) ([]byte, error)

	// List returns the names (not paths) of the regular files in a directory
	List(dir string) ([]string, error)
}

// OSFileSystem is the FileSystem backed by the real filesystem
type OSFileSystem struct{}

// NewOSFileSystem creates a FileSystem backed by the OS
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// ReadFile reads the entire file from disk
func (f *OSFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// List returns the names of the regular files in a directory
func (f *OSFileSystem) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
