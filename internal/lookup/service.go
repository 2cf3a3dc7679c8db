// Package lookup is the service layer shared by the HTTP API, the MCP server
// and the CLI. It turns absent PubChem results into apperr.ErrNotFound and
// validates input before any upstream call.
package lookup

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/starford/chemid/internal/apperr"
	"github.com/starford/chemid/internal/models"
)

// Client is the subset of *pubchem.Client the service depends on.
type Client interface {
	FetchSynonyms(ctx context.Context, name string) (*models.Synonyms, error)
	FetchTitle(ctx context.Context, cid string) (string, bool, error)
	FetchTitles(ctx context.Context, cids []string) (map[string]string, error)
	FetchDescriptions(ctx context.Context, cids []string) iter.Seq2[models.Description, error]
	FetchCompoundByName(ctx context.Context, name string) (*models.Compound, error)
	FetchCompoundCIDByName(ctx context.Context, name string) (string, bool, error)
	FetchCompoundParentCIDByCID(ctx context.Context, cid string) (string, bool, error)
	ResolveByName(ctx context.Context, name string, priority ...models.NameType) (*models.Identity, error)
	ResolveOldestByName(ctx context.Context, name string, priority ...models.NameType) (*models.Identity, error)
}

// MaxBatch caps how many identifiers one titles/descriptions call accepts.
const MaxBatch = 500

// ResolveOptions selects the resolution variant.
type ResolveOptions struct {
	Oldest    bool
	NameTypes []models.NameType
}

// TitleResult is the answer to a batched title lookup.
type TitleResult struct {
	Titles  map[string]string `json:"titles"`
	Missing []string          `json:"missing"`
}

// Service coordinates PubChem lookups.
type Service struct {
	client Client
}

// NewService creates a new lookup service.
func NewService(client Client) *Service {
	return &Service{client: client}
}

// Resolve returns the identity chain for name.
func (s *Service) Resolve(ctx context.Context, name string, opts ResolveOptions) (*models.Identity, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	var id *models.Identity
	if opts.Oldest {
		id, err = s.client.ResolveOldestByName(ctx, name, opts.NameTypes...)
	} else {
		id, err = s.client.ResolveByName(ctx, name, opts.NameTypes...)
	}
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, apperr.ErrNotFound
	}
	return id, nil
}

// Compound returns the raw compound record list for name.
func (s *Service) Compound(ctx context.Context, name string) (*models.Compound, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	c, err := s.client.FetchCompoundByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.ErrNotFound
	}
	return c, nil
}

// Synonyms returns the synonym list for name.
func (s *Service) Synonyms(ctx context.Context, name string) (*models.Synonyms, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}
	syn, err := s.client.FetchSynonyms(ctx, name)
	if err != nil {
		return nil, err
	}
	if syn == nil {
		return nil, apperr.ErrNotFound
	}
	if syn.Synonyms == nil {
		syn.Synonyms = []string{}
	}
	return syn, nil
}

// CID returns the first identifier PubChem lists for name.
func (s *Service) CID(ctx context.Context, name string) (string, error) {
	name, err := requireName(name)
	if err != nil {
		return "", err
	}
	return found(s.client.FetchCompoundCIDByName(ctx, name))
}

// ParentCID returns the parent identifier of cid.
func (s *Service) ParentCID(ctx context.Context, cid string) (string, error) {
	cid, err := requireCID(cid)
	if err != nil {
		return "", err
	}
	return found(s.client.FetchCompoundParentCIDByCID(ctx, cid))
}

// Title returns the title of cid.
func (s *Service) Title(ctx context.Context, cid string) (string, error) {
	cid, err := requireCID(cid)
	if err != nil {
		return "", err
	}
	return found(s.client.FetchTitle(ctx, cid))
}

// Titles returns the titles of cids and lists the identifiers without one.
func (s *Service) Titles(ctx context.Context, cids []string) (*TitleResult, error) {
	if err := checkBatch(cids); err != nil {
		return nil, err
	}
	titles, err := s.client.FetchTitles(ctx, cids)
	if err != nil {
		return nil, err
	}
	res := &TitleResult{Titles: titles, Missing: []string{}}
	seen := make(map[string]struct{}, len(cids))
	for _, cid := range cids {
		if _, ok := titles[cid]; ok {
			continue
		}
		if _, dup := seen[cid]; dup {
			continue
		}
		seen[cid] = struct{}{}
		res.Missing = append(res.Missing, cid)
	}
	return res, nil
}

// Descriptions collects every description record for cids.
func (s *Service) Descriptions(ctx context.Context, cids []string) ([]models.Description, error) {
	if err := checkBatch(cids); err != nil {
		return nil, err
	}
	out := []models.Description{}
	for d, err := range s.client.FetchDescriptions(ctx, cids) {
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func found(v string, ok bool, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.ErrNotFound
	}
	return v, nil
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("lookup: empty compound name: %w", apperr.ErrInvalidInput)
	}
	return name, nil
}

func requireCID(cid string) (string, error) {
	cid = strings.TrimSpace(cid)
	if _, err := models.ParseCID(cid); err != nil {
		return "", fmt.Errorf("lookup: cid %q: %w", cid, apperr.ErrInvalidInput)
	}
	return cid, nil
}

func checkBatch(cids []string) error {
	if len(cids) == 0 {
		return fmt.Errorf("lookup: no cids given: %w", apperr.ErrInvalidInput)
	}
	if len(cids) > MaxBatch {
		return fmt.Errorf("lookup: %d cids exceeds limit of %d: %w", len(cids), MaxBatch, apperr.ErrInvalidInput)
	}
	return nil
}
