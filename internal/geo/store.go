package geo

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/georgia-health-dashboard/internal/domain"
)

// invalidator is implemented by fetchers that cache payloads.
type invalidator interface {
	Invalidate(locations ...string)
}

// Store loads the features of one region from a national collection and
// keeps them until Reload. Concurrent loads of the same generation share a
// single fetch; Reload starts a new generation, so a fetch begun before it
// never replaces what the reload stored.
type Store struct {
	fetcher  domain.Fetcher
	location string
	prefix   string
	logger   *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	features []domain.GeoFeature
	gen      uint64
}

// NewStore creates a feature store for the features under prefix at location.
func NewStore(fetcher domain.Fetcher, location, prefix string, logger *slog.Logger) *Store {
	return &Store{
		fetcher:  fetcher,
		location: location,
		prefix:   prefix,
		logger:   logger.With("source", location, "prefix", prefix),
	}
}

// Location returns the source location of the collection.
func (s *Store) Location() string { return s.location }

// Load returns the cached features, fetching them on first use.
func (s *Store) Load(ctx context.Context) ([]domain.GeoFeature, error) {
	s.mu.RLock()
	cached := s.features
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	return s.fetch(ctx)
}

// Reload discards the cached features and the fetcher's cached payload, then
// fetches again.
func (s *Store) Reload(ctx context.Context) ([]domain.GeoFeature, error) {
	s.mu.Lock()
	s.features = nil
	s.gen++
	s.mu.Unlock()
	if inv, ok := s.fetcher.(invalidator); ok {
		inv.Invalidate(s.location)
	}
	return s.fetch(ctx)
}

// fetch runs one shared fetch per generation. The fetch is detached from
// the caller's cancellation so one caller giving up does not fail the
// others; each caller still returns when its own ctx is done.
func (s *Store) fetch(ctx context.Context) ([]domain.GeoFeature, error) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(s.location+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		payload, err := s.fetcher.Fetch(detached, s.location)
		if err != nil {
			return nil, err
		}
		features, err := ParseFeatures(s.location, payload, s.prefix)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		current := s.gen == gen
		if current {
			s.features = features
		}
		s.mu.Unlock()
		if !current {
			s.logger.Debug("discarding features of a superseded load", "generation", gen)
			return features, nil
		}
		s.logger.Info("region features loaded", "features", len(features), "payload_bytes", len(payload))
		return features, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("region load shared with concurrent caller")
		}
		return res.Val.([]domain.GeoFeature), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
