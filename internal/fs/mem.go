package fs

import (
	"path/filepath"
	"sort"
	"sync"
)

// MemFileSystem is an in-memory FileSystem for testing
type MemFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte // path -> content
}

// NewMemFileSystem creates a new in-memory filesystem
func NewMemFileSystem() *MemFileSystem {
	return &MemFileSystem{
		files: make(map[string][]byte),
	}
}

// WriteFile stores a file in memory
func (f *MemFileSystem) WriteFile(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Copy to prevent external modifications
	buf := make([]byte, len(data))
	copy(buf, data)
	f.files[filepath.Clean(name)] = buf
}

// ReadFile reads the entire file
func (f *MemFileSystem) ReadFile(name string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, ok := f.files[filepath.Clean(name)]
	if !ok {
		return nil, ErrNotExist
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// List returns the names of the files directly under a directory
func (f *MemFileSystem) List(dir string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	dir = filepath.Clean(dir)
	var names []string
	for path := range f.files {
		if filepath.Dir(path) == dir {
			names = append(names, filepath.Base(path))
		}
	}
	sort.Strings(names)
	return names, nil
}
