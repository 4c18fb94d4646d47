// Package enrich resolves lightweight references into display records by fanning
// out one detail call per reference. Individual failures are dropped, never fatal.
package enrich

import (
	"context"

	"github.com/felixgeelhaar/bolt/v3"
	"golang.org/x/sync/errgroup"

	"pokedex-api/internal/logging"
	"pokedex-api/internal/models"
	"pokedex-api/internal/upstream"
)

// DefaultLimit caps concurrent detail calls per batch.
const DefaultLimit = 10

// Fetcher is the part of the upstream client the enricher needs.
type Fetcher interface {
	FetchJSON(ctx context.Context, ep upstream.Endpoint, v any) error
}

// Enricher fans detail lookups out over a bounded number of goroutines.
type Enricher struct {
	fetcher Fetcher
	limit   int
	log     *bolt.Logger
}

// New creates an Enricher. limit <= 0 means DefaultLimit.
func New(fetcher Fetcher, limit int, log *bolt.Logger) *Enricher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = logging.Get()
	}
	return &Enricher{fetcher: fetcher, limit: limit, log: log}
}

// Resolve returns one slot per reference, in input order. A nil slot marks a
// reference whose detail fetch failed. It waits for the whole batch.
func (e *Enricher) Resolve(ctx context.Context, refs []models.Reference) []*models.DetailRecord {
	out := make([]*models.DetailRecord, len(refs))

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, ref := range refs {
		g.Go(func() error {
			handle := ref.Handle()
			if handle == "" {
				e.log.Warn().Int("index", i).Msg("dropping reference without name or url")
				return nil
			}
			ep := upstream.DetailEndpoint(handle)
			var raw models.RawPokemon
			if err := e.fetcher.FetchJSON(ctx, ep, &raw); err != nil {
				logging.With(e.log.Warn(), logging.Endpoint(ep.Key()), logging.ErrorField(err)).Msg("dropping item from batch")
				return nil
			}
			if !raw.Valid() {
				logging.With(e.log.Warn(), logging.Endpoint(ep.Key())).Msg("dropping payload without id or name")
				return nil
			}
			rec := raw.Record()
			out[i] = &rec
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Enrich resolves refs and drops the failures, keeping the survivors in input order.
// The result may be shorter than refs; it is never nil.
func (e *Enricher) Enrich(ctx context.Context, refs []models.Reference) []models.DetailRecord {
	resolved := e.Resolve(ctx, refs)
	records := make([]models.DetailRecord, 0, len(resolved))
	for _, rec := range resolved {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}
