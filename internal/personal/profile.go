package personal

import (
	"context"
	"sort"

	"studyspot-backend/internal/store"
)

// Profile is a derived, per-user summary of historical interaction signals.
// It is recomputed per ranking request and never persisted.
type Profile struct {
	UserID     string                `json:"user_id"`
	Stats      map[string]EventStats `json:"event_stats"`
	Aggregate  Aggregate             `json:"average_preference"`
	Preference Preference            `json:"preference"`

	// History counts per space and building, sessions only.
	SpaceHistory    map[int64]int  `json:"space_history"`
	BuildingHistory map[string]int `json:"building_history"`

	// Bookmarked space ids, most recent first.
	Bookmarked []int64 `json:"bookmarks"`

	suppressed map[int64]struct{}

	// Heuristic personalization inputs, keyed by space.
	dwellMS       map[int64]int64
	longestMS     map[int64]int64
	ordinaryExit  map[int64]bool
	noiseExit     map[int64]bool

	// Marginal-probability personalization inputs.
	sessionMarginals  Marginals
	bookmarkMarginals Marginals
	viewMarginals     Marginals
}

// BuildProfile computes a user's profile from their event history. An
// unknown user or an empty history yields a neutral profile, not an error.
func BuildProfile(ctx context.Context, s store.Store, userID string, alpha float64) (*Profile, error) {
	h, err := loadHistory(ctx, s, userID)
	if err != nil {
		return nil, err
	}
	return FromHistory(userID, h, alpha), nil
}

// FromHistory computes a profile from already-loaded event collections.
func FromHistory(userID string, h *History, alpha float64) *Profile {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	sessionAttrs := make([]Attributes, len(h.Sessions))
	for i, e := range h.Sessions {
		sessionAttrs[i] = e.Attributes
	}
	bookmarkAttrs := make([]Attributes, len(h.Bookmarks))
	for i, e := range h.Bookmarks {
		bookmarkAttrs[i] = e.Attributes
	}
	viewAttrs := make([]Attributes, len(h.Views))
	for i, e := range h.Views {
		viewAttrs[i] = e.Attributes
	}

	sessionStats := statsFor(sessionAttrs)
	sessionStats.SessionTraffic = trafficMean(h.Sessions)

	stats := map[string]EventStats{
		EventSessions:   sessionStats,
		EventBookmarks:  statsFor(bookmarkAttrs),
		EventViews:      statsFor(viewAttrs),
		EventFilterLogs: filterLogStats(h),
	}

	agg := aggregate(stats)

	p := &Profile{
		UserID:          userID,
		Stats:           stats,
		Aggregate:       agg,
		Preference:      derivePreference(agg),
		SpaceHistory:    map[int64]int{},
		BuildingHistory: map[string]int{},
		suppressed:      map[int64]struct{}{},
		dwellMS:         map[int64]int64{},
		longestMS:       map[int64]int64{},
		ordinaryExit:    map[int64]bool{},
		noiseExit:       map[int64]bool{},

		sessionMarginals:  buildMarginals(sessionAttrs, alpha),
		bookmarkMarginals: buildMarginals(bookmarkAttrs, alpha),
		viewMarginals:     buildMarginals(viewAttrs, alpha),
	}

	for _, e := range h.Sessions {
		p.SpaceHistory[e.SpaceID]++
		if e.BuildingID != nil {
			p.BuildingHistory[*e.BuildingID]++
		}
		if e.DurationMS != nil && *e.DurationMS > p.longestMS[e.SpaceID] {
			p.longestMS[e.SpaceID] = *e.DurationMS
		}
		if e.EndReason != nil {
			switch *e.EndReason {
			case "user_exit", "user_end":
				p.ordinaryExit[e.SpaceID] = true
			case "noise":
				p.noiseExit[e.SpaceID] = true
			}
		}
	}

	for _, e := range h.Views {
		if e.DwellMS != nil {
			p.dwellMS[e.SpaceID] += *e.DwellMS
		}
	}

	// Ratings strictly below 3 suppress the space from every ranked result.
	for _, f := range h.Feedback {
		if f.Rating < 3 {
			p.suppressed[f.SpaceID] = struct{}{}
		}
	}

	bookmarks := append([]BookmarkEvent(nil), h.Bookmarks...)
	sort.Slice(bookmarks, func(i, j int) bool {
		if !bookmarks[i].CreatedAt.Equal(bookmarks[j].CreatedAt) {
			return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt)
		}
		return bookmarks[i].SpaceID < bookmarks[j].SpaceID
	})
	p.Bookmarked = make([]int64, 0, len(bookmarks))
	for _, b := range bookmarks {
		p.Bookmarked = append(p.Bookmarked, b.SpaceID)
	}

	return p
}

// Suppressed reports whether the user has rated the space below 3.
func (p *Profile) Suppressed(spaceID int64) bool {
	_, ok := p.suppressed[spaceID]
	return ok
}

// FilterSuppressed removes suppressed ids from a candidate list. Absent or
// repeated ids are fine.
func (p *Profile) FilterSuppressed(ids []int64) []int64 {
	if len(p.suppressed) == 0 {
		return ids
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !p.Suppressed(id) {
			out = append(out, id)
		}
	}
	return out
}

// DwellMS is the user's total detail-view dwell time on a space.
func (p *Profile) DwellMS(spaceID int64) int64 { return p.dwellMS[spaceID] }

// LongestSessionMS is the user's longest completed session at a space.
func (p *Profile) LongestSessionMS(spaceID int64) int64 { return p.longestMS[spaceID] }

// EndedOrdinarily reports whether any past session at the space ended by
// ordinary user exit.
func (p *Profile) EndedOrdinarily(spaceID int64) bool { return p.ordinaryExit[spaceID] }

// EndedByNoise reports whether any past session at the space ended due to
// noise.
func (p *Profile) EndedByNoise(spaceID int64) bool { return p.noiseExit[spaceID] }

// Likelihood is the blended marginal-probability fit of a candidate against
// the user's sessions, bookmarks, and detail views.
func (p *Profile) Likelihood(d store.SpaceDetail) float64 {
	const totalWeight = 3.0 // 1.0 + 1.5 + 0.5, fixed even when a collection is empty
	blend := 1.0*p.sessionMarginals.fitScore(d) +
		1.5*p.bookmarkMarginals.fitScore(d) +
		0.5*p.viewMarginals.fitScore(d)
	return blend / totalWeight
}

func trafficMean(sessions []SessionEvent) *float64 {
	var sum float64
	var n int
	for _, e := range sessions {
		if e.Traffic != nil {
			sum += *e.Traffic
			n++
		}
	}
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}
