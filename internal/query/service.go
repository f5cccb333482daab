package query

import (
	"context"
	"fmt"
	"time"

	"studyspot-backend/internal/availability"
	"studyspot-backend/internal/index"
	"studyspot-backend/internal/personal"
	"studyspot-backend/internal/rank"
	"studyspot-backend/internal/store"
)

// Service runs the retrieval-and-ranking pipeline: index filter, availability
// narrowing, hydration, personalization, scoring. Each invocation is a pure
// function of its inputs plus the pinned index snapshot; no request mutates
// shared state.
type Service struct {
	store    store.Store
	index    *index.Manager
	resolver *availability.Resolver
	scorer   rank.Scorer
	alpha    float64

	now func() time.Time
}

func NewService(s store.Store, m *index.Manager, scorer rank.Scorer, alpha float64) *Service {
	return &Service{
		store:    s,
		index:    m,
		resolver: availability.NewResolver(s),
		scorer:   scorer,
		alpha:    alpha,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Search resolves a filter set to the candidate ids usable in the window.
// With no filters present, the candidate universe is every space.
func (s *Service) Search(ctx context.Context, filters index.Filters, window availability.Window) ([]int64, error) {
	ids, err := s.candidates(ctx, filters)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, ids, window, s.now())
}

// SearchDetails is the anonymous search surface: filtered, availability
// narrowed, hydrated, and ordered by filter-match score alone.
func (s *Service) SearchDetails(ctx context.Context, filters index.Filters, window availability.Window, loc *rank.Location) ([]rank.ScoredSpace, error) {
	ids, err := s.Search(ctx, filters, window)
	if err != nil {
		return nil, err
	}
	details, err := s.store.SpaceDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.scorer.Rank(details, filters, nil, loc), nil
}

// Rank runs the full personalized pipeline for one user. Spaces the user
// rated poorly are removed before scoring.
func (s *Service) Rank(ctx context.Context, userID string, filters index.Filters, window availability.Window, loc *rank.Location) ([]rank.ScoredSpace, error) {
	ids, err := s.Search(ctx, filters, window)
	if err != nil {
		return nil, err
	}

	profile, err := personal.BuildProfile(ctx, s.store, userID, s.alpha)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	ids = profile.FilterSuppressed(ids)
	details, err := s.store.SpaceDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.scorer.Rank(details, filters, profile, loc), nil
}

// Profile exposes the computed preference profile for one user.
func (s *Service) Profile(ctx context.Context, userID string) (*personal.Profile, error) {
	return personal.BuildProfile(ctx, s.store, userID, s.alpha)
}

// AvailableBuildings lists all buildings as {id, name}, ordered by name.
func (s *Service) AvailableBuildings(ctx context.Context) ([]store.BuildingSummary, error) {
	return s.store.Buildings(ctx)
}

func (s *Service) candidates(ctx context.Context, filters index.Filters) ([]int64, error) {
	snap, err := s.index.Current()
	if err != nil {
		return nil, err
	}
	ids, applied := index.Resolve(snap.Index, filters)
	if applied {
		return ids, nil
	}
	return s.store.AllSpaceIDs(ctx)
}
