package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/checksum"
)

const fileExt = ".json"

// FS implements Provider with one file per key under a root directory.
// File names are the SHA-256 of the key, so arbitrary URLs are safe keys.
type FS struct {
	root string // absolute path to the store directory

	mu      sync.Mutex
	keys    map[string]string // file name -> key, for every key seen
	written map[string]string // file name -> checksum of our last write
}

// NewFS creates an FS provider rooted at dir, creating it when missing.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{
		root:    abs,
		keys:    make(map[string]string),
		written: make(map[string]string),
	}, nil
}

// Root returns the absolute store directory.
func (f *FS) Root() string { return f.root }

func fileName(key string) string {
	return checksum.String(key) + fileExt
}

func (f *FS) remember(name, key string) {
	f.mu.Lock()
	f.keys[name] = key
	f.mu.Unlock()
}

// Get reads the file holding key.
func (f *FS) Get(key string) ([]byte, error) {
	name := fileName(key)
	f.remember(name, key)
	data, err := os.ReadFile(filepath.Join(f.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Set atomically writes value: tmp file, fsync, rename.
func (f *FS) Set(key string, value []byte) error {
	name := fileName(key)
	f.remember(name, key)

	tmp, err := os.CreateTemp(f.root, ".cardgrid-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(value); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}

	f.mu.Lock()
	f.written[name] = checksum.Sum(value)
	f.mu.Unlock()

	if err := os.Rename(tmpName, filepath.Join(f.root, name)); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Close is a no-op.
func (f *FS) Close() error { return nil }

// lookup resolves a file name back to the key it stores.
func (f *FS) lookup(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key, ok := f.keys[name]
	return key, ok
}

// ownWrite reports whether data is exactly what this process last wrote to name.
func (f *FS) ownWrite(name string, data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cs, ok := f.written[name]
	return ok && cs == checksum.Sum(data)
}

// forget clears write bookkeeping after an external removal.
func (f *FS) forget(name string) {
	f.mu.Lock()
	delete(f.written, name)
	f.mu.Unlock()
}
