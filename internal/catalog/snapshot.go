package catalog

import (
	"context"

	"pokedex-api/internal/logging"
	"pokedex-api/internal/models"
	"pokedex-api/internal/upstream"
)

// SnapshotState describes the name snapshot used by Search.
type SnapshotState int

const (
	SnapshotAbsent SnapshotState = iota
	SnapshotFresh
	// SnapshotExpired behaves exactly like SnapshotAbsent on the next search.
	SnapshotExpired
)

func (s SnapshotState) String() string {
	switch s {
	case SnapshotAbsent:
		return "ABSENT"
	case SnapshotFresh:
		return "FRESH"
	case SnapshotExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// SnapshotState reports whether a fresh snapshot is available.
func (s *Service) SnapshotState() SnapshotState {
	if s.store.Has(SnapshotKey) {
		return SnapshotFresh
	}
	if s.everLoaded.Load() {
		return SnapshotExpired
	}
	return SnapshotAbsent
}

func snapshotFrom(v any) ([]models.Reference, bool) {
	refs, ok := v.([]models.Reference)
	return refs, ok
}

// snapshot returns the cached reference list, loading it when absent or expired.
// Concurrent loads share one upstream call.
func (s *Service) snapshot(ctx context.Context) ([]models.Reference, error) {
	if v, ok := s.store.Get(SnapshotKey); ok {
		if refs, ok := snapshotFrom(v); ok {
			return refs, nil
		}
	}

	ch := s.group.DoChan(SnapshotKey, func() (any, error) {
		if v, ok := s.store.Peek(SnapshotKey); ok {
			if refs, ok := snapshotFrom(v); ok {
				return refs, nil
			}
		}

		var page models.ReferencePage
		ep := upstream.ListEndpoint(0, s.opts.SnapshotSize)
		if err := s.fetcher.FetchJSON(context.WithoutCancel(ctx), ep, &page); err != nil {
			return nil, err
		}
		if page.Results == nil {
			page.Results = []models.Reference{}
		}
		s.store.Set(SnapshotKey, page.Results, s.opts.SnapshotTTL)
		s.everLoaded.Store(true)
		s.log.Info().Int("names", len(page.Results)).Msg("name snapshot refreshed")
		return page.Results, nil
	})

	select {
	case <-ctx.Done():
		return nil, &upstream.UpstreamError{Endpoint: SnapshotKey, Message: ctx.Err().Error(), Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			logging.With(s.log.Error(), logging.Endpoint(SnapshotKey), logging.ErrorField(res.Err)).Msg("name snapshot load failed")
			return nil, res.Err
		}
		refs, _ := snapshotFrom(res.Val)
		return refs, nil
	}
}
