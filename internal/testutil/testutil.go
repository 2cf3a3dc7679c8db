// Package testutil provides shared test helpers: a fake PubChem upstream,
// fast fetchers and throwaway caches.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/chemid/internal/cache"
	"github.com/starford/chemid/internal/fetch"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSQLiteCache creates a temporary SQLite cache that is automatically cleaned up.
func TestSQLiteCache(t *testing.T) *cache.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "chemid-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	c, err := cache.OpenSQLite(dbFile.Name(), 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// Fetcher returns a fetcher aimed at srv with a short retry policy.
func Fetcher(srv *FakePubChem, opts ...fetch.Option) *fetch.Fetcher {
	base := []fetch.Option{
		fetch.WithClient(srv.Client()),
		fetch.WithLogger(Logger()),
		fetch.WithPolicy(fetch.Policy{MaxAttempts: 2, Interval: time.Millisecond}),
	}
	return fetch.New(append(base, opts...)...)
}
