// Package fetch wraps HTTP GETs of JSON documents with a fixed-interval retry
// policy, status interception and an optional response cache.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/starford/chemid/internal/apperr"
	"github.com/starford/chemid/internal/cache"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Policy bounds retries of transport failures. Status-code failures are
// never retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, the first included.
	MaxAttempts int
	// Interval is the fixed wait between attempts.
	Interval time.Duration
}

// DefaultPolicy returns 10 attempts spaced 12 seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 10, Interval: 12 * time.Second}
}

// EventKind names what happened to a fetch.
type EventKind string

// Fetch outcomes reported to observers.
const (
	EventCached   EventKind = "cached"
	EventFetched  EventKind = "fetched"
	EventNotFound EventKind = "not_found"
	EventFailed   EventKind = "failed"
	EventRetry    EventKind = "retry"
)

// Event describes one fetch outcome.
type Event struct {
	Kind    EventKind `json:"kind"`
	URL     string    `json:"url"`
	Status  int       `json:"status,omitempty"`
	Attempt int       `json:"attempt,omitempty"`
}

// Fetcher issues GET requests for JSON documents.
type Fetcher struct {
	client  Doer
	cache   cache.Cache
	policy  Policy
	logger  *slog.Logger
	observe func(Event)
	sleep   func(ctx context.Context, d time.Duration) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP executor.
func WithClient(c Doer) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithCache enables response caching keyed by URL. A nil cache disables it.
func WithCache(c cache.Cache) Option {
	return func(f *Fetcher) { f.cache = c }
}

// WithPolicy sets the retry policy.
func WithPolicy(p Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithObserver registers a callback invoked synchronously for every event.
func WithObserver(fn func(Event)) Option {
	return func(f *Fetcher) { f.observe = fn }
}

// New creates a Fetcher. Without options it uses http.DefaultClient, no
// cache and DefaultPolicy.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: http.DefaultClient,
		policy: DefaultPolicy(),
		logger: slog.Default(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.policy.MaxAttempts < 1 {
		f.policy.MaxAttempts = 1
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.client == nil {
		f.client = http.DefaultClient
	}
	return f
}

// Fetch GETs url and decodes the JSON body into out.
//
// Statuses listed in notFound yield apperr.ErrNotFound. Any other non-2xx
// status yields *apperr.AccessError. Transport failures are retried per the
// policy; the last one is returned wrapped.
func (f *Fetcher) Fetch(ctx context.Context, url string, out any, notFound ...int) error {
	if f.cache != nil {
		body, ok, err := f.cache.Get(url)
		switch {
		case err != nil:
			f.logger.Warn("fetch: cache read failed", slog.String("url", url), slog.String("error", err.Error()))
		case ok:
			if err := json.Unmarshal(body, out); err == nil {
				f.logger.Debug("fetch: cache hit", slog.String("url", url))
				f.emit(Event{Kind: EventCached, URL: url})
				return nil
			}
			f.logger.Warn("fetch: dropping undecodable cache entry", slog.String("url", url))
			_ = f.cache.Delete(url)
		}
	}

	body, err := f.get(ctx, url, notFound)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("fetch: decode %s: %w", url, err)
	}

	if f.cache != nil {
		if err := f.cache.Set(url, body); err != nil {
			f.logger.Warn("fetch: cache write failed", slog.String("url", url), slog.String("error", err.Error()))
		}
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, url string, notFound []int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var lastErr error
	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f.logger.Debug("fetch: GET", slog.String("url", url), slog.Int("attempt", attempt))
		status, body, err := f.doOnce(req.Clone(ctx))
		if err == nil {
			switch {
			case status >= 200 && status < 300:
				f.emit(Event{Kind: EventFetched, URL: url, Status: status, Attempt: attempt})
				return body, nil
			case slices.Contains(notFound, status):
				f.logger.Debug("fetch: not found", slog.String("url", url), slog.Int("status", status))
				f.emit(Event{Kind: EventNotFound, URL: url, Status: status, Attempt: attempt})
				return nil, apperr.ErrNotFound
			default:
				f.emit(Event{Kind: EventFailed, URL: url, Status: status, Attempt: attempt})
				return nil, &apperr.AccessError{StatusCode: status, URL: url}
			}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		if attempt == f.policy.MaxAttempts {
			break
		}

		f.logger.Warn("fetch: request retrying",
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", f.policy.MaxAttempts),
			slog.String("sleep", f.policy.Interval.String()),
			slog.String("error", err.Error()))
		f.emit(Event{Kind: EventRetry, URL: url, Attempt: attempt})

		if err := f.sleep(ctx, f.policy.Interval); err != nil {
			return nil, err
		}
	}

	f.emit(Event{Kind: EventFailed, URL: url, Attempt: f.policy.MaxAttempts})
	return nil, fmt.Errorf("fetch: GET %s: %w", url, lastErr)
}

func (f *Fetcher) doOnce(req *http.Request) (int, []byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return 0, nil, readErr
	}
	return resp.StatusCode, raw, nil
}

func (f *Fetcher) emit(ev Event) {
	if f.observe != nil {
		f.observe(ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
