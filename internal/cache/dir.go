package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/chemid/internal/checksum"
)

// Dir keeps one JSON file per key under a root directory. File names are the
// SHA-256 of the key, so arbitrary URLs map to safe paths.
type Dir struct {
	root string // absolute path to cache directory
	ttl  time.Duration
	now  func() time.Time
}

var _ Cache = (*Dir)(nil)

// NewDir creates the directory if needed and returns a cache rooted there.
func NewDir(root string, ttl time.Duration) (*Dir, error) {
	if root == "" {
		return nil, fmt.Errorf("cache: dir path is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cache: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("cache: mkdir: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cache: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cache: root is not a directory: %s", abs)
	}
	return &Dir{root: abs, ttl: ttl, now: time.Now}, nil
}

func (d *Dir) path(key string) string {
	return filepath.Join(d.root, checksum.Key(key)+".json")
}

// Get reads the file for key; a missing or expired file is a miss.
func (d *Dir) Get(key string) ([]byte, bool, error) {
	p := d.path(key)
	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: stat: %w", err)
	}
	if d.ttl > 0 && d.now().Sub(info.ModTime()) > d.ttl {
		return nil, false, nil
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: read: %w", err)
	}
	return data, true, nil
}

// Set atomically writes value: tmp file → fsync → rename.
func (d *Dir) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(d.root, ".chemid-tmp-*")
	if err != nil {
		return fmt.Errorf("cache: create temp: %w", err)
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
		return fmt.Errorf("cache: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("cache: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cache: close temp: %w", err)
	}
	if err := os.Rename(tmpName, d.path(key)); err != nil {
		return fmt.Errorf("cache: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the file for key.
func (d *Dir) Delete(key string) error {
	err := os.Remove(d.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}
