// Package cache provides response caches keyed by request URL.
package cache

import (
	"fmt"
	"time"
)

// Cache modes.
const (
	ModeNone   = "none"
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
	ModeDir    = "dir"
)

// Cache stores raw response bodies by key. Implementations own eviction and
// expiry; a miss is reported with ok == false and a nil error.
type Cache interface {
	// Get returns the cached body for key.
	Get(key string) (value []byte, ok bool, err error)
	// Set stores body under key, replacing any previous value.
	Set(key string, value []byte) error
	// Delete drops key; deleting a missing key is not an error.
	Delete(key string) error
}

// Options selects and sizes a cache implementation.
type Options struct {
	Mode string
	// Path is the SQLite file or the cache directory.
	Path string
	// Size bounds the in-memory cache; zero means unbounded.
	Size int
	// TTL expires entries; zero means entries never expire.
	TTL time.Duration
}

// Open builds the cache selected by opts.Mode. ModeNone (or an empty mode)
// returns a nil Cache, which callers treat as "no caching".
func Open(opts Options) (Cache, error) {
	switch opts.Mode {
	case "", ModeNone:
		return nil, nil
	case ModeMemory:
		return NewMemory(opts.Size, opts.TTL), nil
	case ModeSQLite:
		s, err := OpenSQLite(opts.Path, opts.TTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ModeDir:
		d, err := NewDir(opts.Path, opts.TTL)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("cache: unknown mode %q", opts.Mode)
	}
}
