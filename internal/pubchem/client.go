// Package pubchem implements the PubChem PUG REST lookups: synonyms, titles,
// descriptions, identifiers and name resolution.
package pubchem

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/starford/chemid/internal/apperr"
	"github.com/starford/chemid/internal/batch"
	"github.com/starford/chemid/internal/models"
	"github.com/starford/chemid/internal/resolver"
)

// DefaultBaseURL is the public PUG REST endpoint.
const DefaultBaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug"

// Fetcher retrieves and decodes a JSON document. Statuses in notFound are
// reported as apperr.ErrNotFound.
type Fetcher interface {
	Fetch(ctx context.Context, url string, out any, notFound ...int) error
}

// Client issues PubChem requests through a Fetcher. It holds no mutable
// state of its own.
type Client struct {
	fetcher   Fetcher
	baseURL   string
	batchSize int
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the PUG REST endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithBatchSize sets how many identifiers share one description request.
func WithBatchSize(n int) Option {
	return func(c *Client) { c.batchSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client backed by f.
func New(f Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher:   f,
		baseURL:   DefaultBaseURL,
		batchSize: batch.DefaultSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// FetchSynonyms returns the synonyms of the compound called name, or nil when
// PubChem does not know it.
func (c *Client) FetchSynonyms(ctx context.Context, name string) (*models.Synonyms, error) {
	u := c.url(nil, "compound", "name", url.PathEscape(name), "synonyms", "JSON")
	c.logger.Debug("pubchem: fetching synonyms", slog.String("name", name))

	var resp informationResponse[models.Synonyms]
	if err := c.fetcher.Fetch(ctx, u, &resp, http.StatusNotFound); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.logger.Debug("pubchem: no synonyms", slog.String("name", name))
			return nil, nil
		}
		return nil, err
	}
	info := resp.information()
	if len(info) == 0 {
		return nil, nil
	}
	return &info[0], nil
}

// FetchTitle returns the title of a single compound.
func (c *Client) FetchTitle(ctx context.Context, cid string) (string, bool, error) {
	for d, err := range c.FetchDescriptions(ctx, []string{cid}) {
		if err != nil {
			return "", false, err
		}
		if d.HasTitle() {
			return *d.Title, true, nil
		}
	}
	return "", false, nil
}

// FetchTitles maps each identifier to its title. Identifiers without a title
// are left out.
func (c *Client) FetchTitles(ctx context.Context, cids []string) (map[string]string, error) {
	out := make(map[string]string)
	for d, err := range c.FetchDescriptions(ctx, cids) {
		if err != nil {
			return nil, err
		}
		if d.HasTitle() {
			out[string(d.CID)] = *d.Title
		}
	}
	return out, nil
}

// FetchDescriptions streams description records for cids, one request per
// batch, in batch order. A batch answered with 400 or 404 contributes nothing.
// Any other failure is yielded once and ends the sequence.
func (c *Client) FetchDescriptions(ctx context.Context, cids []string) iter.Seq2[models.Description, error] {
	return func(yield func(models.Description, error) bool) {
		for group := range batch.Plan(cids, c.batchSize) {
			u := c.url(nil, "compound", "cid", joinEscaped(group), "description", "JSON")
			c.logger.Debug("pubchem: fetching descriptions", slog.Any("cids", group))

			var resp informationResponse[models.Description]
			err := c.fetcher.Fetch(ctx, u, &resp, http.StatusBadRequest, http.StatusNotFound)
			if errors.Is(err, apperr.ErrNotFound) {
				c.logger.Debug("pubchem: no descriptions for batch", slog.Any("cids", group))
				continue
			}
			if err != nil {
				yield(models.Description{}, err)
				return
			}
			for _, d := range resp.information() {
				if !yield(d, nil) {
					return
				}
			}
		}
	}
}

// FetchCompoundByName returns the full compound record list for name, or nil
// when PubChem does not know it.
func (c *Client) FetchCompoundByName(ctx context.Context, name string) (*models.Compound, error) {
	u := c.url(nil, "compound", "name", url.PathEscape(name), "JSON")
	c.logger.Debug("pubchem: fetching compound by name", slog.String("name", name))

	var compound models.Compound
	if err := c.fetcher.Fetch(ctx, u, &compound, http.StatusNotFound); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.logger.Debug("pubchem: compound not found", slog.String("name", name))
			return nil, nil
		}
		return nil, err
	}
	if compound.Entries == nil {
		return nil, nil
	}
	return &compound, nil
}

// FetchCompoundCIDByName returns the first identifier PubChem lists for name.
func (c *Client) FetchCompoundCIDByName(ctx context.Context, name string) (string, bool, error) {
	u := c.url(nil, "compound", "name", url.PathEscape(name), "cids", "JSON")
	c.logger.Debug("pubchem: fetching compound cid by name", slog.String("name", name))
	return c.firstCID(ctx, u)
}

// FetchCompoundParentCIDByCID returns the parent identifier of cid.
func (c *Client) FetchCompoundParentCIDByCID(ctx context.Context, cid string) (string, bool, error) {
	u := c.url(url.Values{"cids_type": {"parent"}}, "compound", "cid", url.PathEscape(cid), "cids", "JSON")
	c.logger.Debug("pubchem: fetching parent cid", slog.String("cid", cid))
	return c.firstCID(ctx, u)
}

// ResolveByName resolves name into an identity chain, selecting names by
// priority (default Traditional, then Preferred).
func (c *Client) ResolveByName(ctx context.Context, name string, priority ...models.NameType) (*models.Identity, error) {
	entries, err := c.entries(ctx, name)
	if err != nil {
		return nil, err
	}
	return resolver.Resolve(entries, priorityOrDefault(priority)), nil
}

// ResolveOldestByName is ResolveByName with the record list ordered by
// ascending identifier first.
func (c *Client) ResolveOldestByName(ctx context.Context, name string, priority ...models.NameType) (*models.Identity, error) {
	entries, err := c.entries(ctx, name)
	if err != nil {
		return nil, err
	}
	return resolver.ResolveOldest(entries, priorityOrDefault(priority)), nil
}

func (c *Client) entries(ctx context.Context, name string) ([]models.CompoundEntry, error) {
	compound, err := c.FetchCompoundByName(ctx, name)
	if err != nil || compound == nil {
		return nil, err
	}
	return compound.Entries, nil
}

func (c *Client) firstCID(ctx context.Context, u string) (string, bool, error) {
	var resp identifierResponse
	if err := c.fetcher.Fetch(ctx, u, &resp, http.StatusNotFound, http.StatusBadRequest); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if resp.IdentifierList == nil || len(resp.IdentifierList.CID) == 0 {
		return "", false, nil
	}
	cid := string(resp.IdentifierList.CID[0])
	return cid, cid != "", nil
}

func (c *Client) url(query url.Values, segments ...string) string {
	u := c.baseURL + "/" + strings.Join(segments, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func joinEscaped(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = url.PathEscape(id)
	}
	return strings.Join(parts, ",")
}

func priorityOrDefault(p []models.NameType) []models.NameType {
	if len(p) == 0 {
		return models.DefaultNamePriority()
	}
	return p
}
