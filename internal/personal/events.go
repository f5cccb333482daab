package personal

import (
	"context"
	"fmt"
	"time"

	"studyspot-backend/internal/model"
	"studyspot-backend/internal/store"
)

// Attributes is one historical event row joined to its space and building
// dimension data. Pointer fields stay nil when the space no longer resolves.
type Attributes struct {
	SpaceID        int64
	BuildingID     *string
	Capacity       *int
	MustReserve    *bool
	TechEnhanced   *bool
	Indoor         *bool
	TalkingAllowed *bool
	HasPrinter     *bool
}

// SessionEvent is an enriched study session.
type SessionEvent struct {
	Attributes
	DurationMS *int64
	EndReason  *string
	Traffic    *float64
}

// BookmarkEvent is an enriched bookmark.
type BookmarkEvent struct {
	Attributes
	CreatedAt time.Time
}

// ViewEvent is an enriched detail view.
type ViewEvent struct {
	Attributes
	DwellMS *int64
}

// History holds a user's enriched event collections plus the raw feedback and
// filter-log rows the model consumes directly.
type History struct {
	Sessions  []SessionEvent
	Bookmarks []BookmarkEvent
	Views     []ViewEvent
	Feedback  []model.SpotFeedback
	FilterLog *model.SearchFilterLog
}

// loadHistory reads the user's event tables and joins each row to space and
// building dimension data in one detail query.
func loadHistory(ctx context.Context, s store.Store, userID string) (*History, error) {
	sessions, err := s.SessionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	bookmarks, err := s.BookmarksForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	views, err := s.ViewsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	feedback, err := s.FeedbackForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	filterLog, err := s.FilterLogForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	seen := make(map[int64]struct{})
	var ids []int64
	collect := func(id int64) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, e := range sessions {
		collect(e.SpaceID)
	}
	for _, e := range bookmarks {
		collect(e.SpaceID)
	}
	for _, e := range views {
		collect(e.SpaceID)
	}

	details, err := s.SpaceDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	detailMap := make(map[int64]store.SpaceDetail, len(details))
	for _, d := range details {
		detailMap[d.ID] = d
	}

	h := &History{Feedback: feedback, FilterLog: filterLog}
	for _, e := range sessions {
		h.Sessions = append(h.Sessions, SessionEvent{
			Attributes: enrich(e.SpaceID, e.BuildingID, detailMap),
			DurationMS: e.DurationMS,
			EndReason:  e.EndReason,
			Traffic:    e.SessionTraffic,
		})
	}
	for _, e := range bookmarks {
		h.Bookmarks = append(h.Bookmarks, BookmarkEvent{
			Attributes: enrich(e.SpaceID, e.BuildingID, detailMap),
			CreatedAt:  e.CreatedAt,
		})
	}
	for _, e := range views {
		h.Views = append(h.Views, ViewEvent{
			Attributes: enrich(e.SpaceID, e.BuildingID, detailMap),
			DwellMS:    e.DwellMS,
		})
	}
	return h, nil
}

// enrich joins one event row to dimension data. The event's own building id
// wins; the space's building is the fallback.
func enrich(spaceID int64, eventBuilding *string, details map[int64]store.SpaceDetail) Attributes {
	attrs := Attributes{SpaceID: spaceID, BuildingID: eventBuilding}
	d, ok := details[spaceID]
	if !ok {
		return attrs
	}
	if attrs.BuildingID == nil {
		attrs.BuildingID = d.BuildingID
	}
	attrs.Capacity = d.Capacity
	attrs.MustReserve = boolPtr(d.MustReserve)
	attrs.TechEnhanced = boolPtr(d.TechEnhanced)
	attrs.Indoor = boolPtr(d.Indoor)
	attrs.TalkingAllowed = boolPtr(d.TalkingAllowed)
	attrs.HasPrinter = d.HasPrinter
	return attrs
}

func boolPtr(b bool) *bool { return &b }
