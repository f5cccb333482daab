package availability

import (
	"context"
	"fmt"
	"time"

	"studyspot-backend/internal/model"
	"studyspot-backend/internal/store"
)

// Staleness is the age past which scraped slot data is ignored.
const Staleness = 24 * time.Hour

// Window is the time range a caller wants a space for. The zero value means
// "right now": the current instant must fall inside a slot.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsInstant reports whether the window is the default right-now query.
func (w Window) IsInstant() bool { return w.Start.IsZero() && w.End.IsZero() }

// Resolver narrows candidate spaces to those usable in a window.
type Resolver struct {
	store store.Store
}

func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the subset of candidates usable for the window at now.
//
// A space that does not require reservation is always usable. A must-reserve
// space is usable only when a fresh available slot covers the whole window;
// no fresh slot data means unavailable.
func (r *Resolver) Resolve(ctx context.Context, candidates []int64, window Window, now time.Time) ([]int64, error) {
	if len(candidates) == 0 {
		return []int64{}, nil
	}

	reserveIDs, err := r.store.MustReserveIDs(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("availability resolve: %w", err)
	}
	if len(reserveIDs) == 0 {
		return candidates, nil
	}

	slots, err := r.store.SlotsForSpaces(ctx, reserveIDs, now.Add(-Staleness))
	if err != nil {
		return nil, fmt.Errorf("availability resolve: %w", err)
	}

	mustReserve := make(map[int64]struct{}, len(reserveIDs))
	for _, id := range reserveIDs {
		mustReserve[id] = struct{}{}
	}
	return narrow(candidates, mustReserve, slots, window, now), nil
}

// narrow applies the policy to pre-fetched data. Duplicate and overlapping
// slots are tolerated; any single covering available slot suffices.
func narrow(candidates []int64, mustReserve map[int64]struct{}, slots []model.AvailabilitySlot, window Window, now time.Time) []int64 {
	usable := make(map[int64]struct{})
	for _, slot := range slots {
		if !slot.Available {
			continue
		}
		if now.Sub(slot.ScrapedAt) >= Staleness {
			continue
		}
		if covers(slot, window, now) {
			usable[slot.SpaceID] = struct{}{}
		}
	}

	out := make([]int64, 0, len(candidates))
	for _, id := range candidates {
		if _, reserve := mustReserve[id]; !reserve {
			out = append(out, id)
			continue
		}
		if _, ok := usable[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func covers(slot model.AvailabilitySlot, window Window, now time.Time) bool {
	if window.IsInstant() {
		return !slot.StartTime.After(now) && !slot.EndTime.Before(now)
	}
	return !slot.StartTime.After(window.Start) && !slot.EndTime.Before(window.End)
}
