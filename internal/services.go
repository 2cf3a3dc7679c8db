package internal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/starford/chemid/internal/cache"
	"github.com/starford/chemid/internal/fetch"
	"github.com/starford/chemid/internal/lookup"
	"github.com/starford/chemid/internal/pubchem"
)

// Services bundles the lookup stack built from a Config.
type Services struct {
	Cache   cache.Cache
	Fetcher *fetch.Fetcher
	Client  *pubchem.Client
	Lookup  *lookup.Service
}

// NewServices opens the configured cache and wires fetcher, PubChem client
// and lookup service. Extra fetch options (e.g. an observer) are applied
// last. Callers must Close the result.
func NewServices(cfg *Config, logger *slog.Logger, extra ...fetch.Option) (*Services, error) {
	c, err := cache.Open(cfg.Cache.Options())
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	opts := []fetch.Option{
		fetch.WithClient(&http.Client{Timeout: cfg.PubChem.Timeout}),
		fetch.WithCache(c),
		fetch.WithPolicy(cfg.PubChem.Retry.Policy()),
		fetch.WithLogger(logger),
	}
	f := fetch.New(append(opts, extra...)...)

	client := pubchem.New(f,
		pubchem.WithBaseURL(cfg.PubChem.BaseURL),
		pubchem.WithBatchSize(cfg.PubChem.BatchSize),
		pubchem.WithLogger(logger),
	)

	return &Services{
		Cache:   c,
		Fetcher: f,
		Client:  client,
		Lookup:  lookup.NewService(client),
	}, nil
}

// Close releases the cache when it holds resources.
func (s *Services) Close() error {
	if closer, ok := s.Cache.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// PurgeCache drops expired entries from caches that support it.
func (s *Services) PurgeCache() (int64, error) {
	p, ok := s.Cache.(interface{ Purge() (int64, error) })
	if !ok {
		return 0, errors.New("cache: purge not supported by this cache mode")
	}
	return p.Purge()
}
