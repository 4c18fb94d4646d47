// Package catalog implements the list, search and detail pipelines on top of the
// cached upstream client and the fan-out enricher.
package catalog

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/bolt/v3"
	"golang.org/x/sync/singleflight"

	"pokedex-api/internal/logging"
	"pokedex-api/internal/models"
	"pokedex-api/internal/upstream"
)

const (
	// SnapshotKey is the fixed cache key of the all-names snapshot.
	SnapshotKey = "all-pokemon-names"

	// MinQueryLength is the shortest accepted search query.
	MinQueryLength = 2

	DefaultSnapshotTTL  = 2 * time.Hour
	DefaultSnapshotSize = 1500
	DefaultSearchLimit  = 20
)

// ErrSeedFailed marks a failure of the call a pipeline is seeded from (the page
// of references or the name snapshot). The upstream cause is kept for %+v
// output but hidden from errors.Is, so a 404 there never reads as a missing item.
var ErrSeedFailed = errors.New("seed call failed")

func seedFailure(err error, msg string) error {
	return errors.Mark(errors.HandledWithMessage(err, msg), ErrSeedFailed)
}

// Fetcher is the part of the upstream client the pipelines need.
type Fetcher interface {
	FetchJSON(ctx context.Context, ep upstream.Endpoint, v any) error
}

// Enricher resolves references into display records, dropping failures.
type Enricher interface {
	Enrich(ctx context.Context, refs []models.Reference) []models.DetailRecord
}

// SnapshotStore holds the long-lived name snapshot.
type SnapshotStore interface {
	Get(key string) (any, bool)
	Peek(key string) (any, bool)
	Has(key string) bool
	Set(key string, value any, ttl time.Duration)
}

// Options configures a Service.
type Options struct {
	SnapshotTTL  time.Duration
	SnapshotSize int
	SearchLimit  int
	Logger       *bolt.Logger
}

// Service wires the list, search and detail pipelines.
type Service struct {
	fetcher  Fetcher
	enricher Enricher
	store    SnapshotStore
	opts     Options

	group      singleflight.Group
	everLoaded atomic.Bool
	log        *bolt.Logger
}

// NewService creates a Service. Zero options fall back to the defaults.
func NewService(fetcher Fetcher, enricher Enricher, store SnapshotStore, opts Options) *Service {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = DefaultSnapshotTTL
	}
	if opts.SnapshotSize <= 0 {
		opts.SnapshotSize = DefaultSnapshotSize
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.Logger == nil {
		opts.Logger = logging.Get()
	}
	return &Service{
		fetcher:  fetcher,
		enricher: enricher,
		store:    store,
		opts:     opts,
		log:      opts.Logger,
	}
}

// ListPage fetches one page of references and enriches it. Upstream paging
// metadata is returned verbatim; Results may be shorter than limit even when
// more pages exist. A failed page fetch fails the whole call.
func (s *Service) ListPage(ctx context.Context, offset, limit int) (models.Page, error) {
	if offset < 0 || limit < 1 {
		return models.Page{}, errors.Wrapf(models.ErrInvalidInput, "offset=%d limit=%d", offset, limit)
	}

	var page models.ReferencePage
	if err := s.fetcher.FetchJSON(ctx, upstream.ListEndpoint(offset, limit), &page); err != nil {
		return models.Page{}, seedFailure(err, "fetching page of references")
	}

	return models.Page{
		Count:    page.Count,
		Next:     page.Next,
		Previous: page.Previous,
		Results:  s.enricher.Enrich(ctx, page.Results),
	}, nil
}

// Search matches query against the snapshot of all names (case-insensitive
// substring), reports the total match count and enriches the first SearchLimit
// matches in upstream order.
func (s *Service) Search(ctx context.Context, query string) (models.SearchResult, error) {
	q := strings.ToLower(query)
	if utf8.RuneCountInString(q) < MinQueryLength || strings.TrimSpace(q) == "" {
		return models.SearchResult{}, models.ErrInvalidQuery
	}

	refs, err := s.snapshot(ctx)
	if err != nil {
		return models.SearchResult{}, seedFailure(err, "loading name snapshot")
	}

	var matches []models.Reference
	for _, ref := range refs {
		if strings.Contains(strings.ToLower(ref.Name), q) {
			matches = append(matches, ref)
		}
	}

	capped := matches
	if len(capped) > s.opts.SearchLimit {
		capped = capped[:s.opts.SearchLimit]
	}
	return models.SearchResult{
		Count:   len(matches),
		Results: s.enricher.Enrich(ctx, capped),
	}, nil
}

// Detail returns the full record for a name or numeric id.
// An unknown identifier yields an error matching upstream.ErrNotFound.
func (s *Service) Detail(ctx context.Context, nameOrID string) (models.Pokemon, error) {
	handle := strings.ToLower(strings.TrimSpace(nameOrID))
	if handle == "" {
		return models.Pokemon{}, errors.Wrap(models.ErrInvalidInput, "empty identifier")
	}

	var raw models.RawPokemon
	ep := upstream.DetailEndpoint(handle)
	if err := s.fetcher.FetchJSON(ctx, ep, &raw); err != nil {
		return models.Pokemon{}, err
	}
	if !raw.Valid() {
		return models.Pokemon{}, &upstream.UpstreamError{Endpoint: ep.Key(), Message: "payload has no id or name"}
	}
	return raw.Details(), nil
}

// Records enriches a list of numeric ids, dropping the ones that fail.
func (s *Service) Records(ctx context.Context, ids []int) []models.DetailRecord {
	refs := make([]models.Reference, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.Reference{Name: strconv.Itoa(id)})
	}
	return s.enricher.Enrich(ctx, refs)
}
