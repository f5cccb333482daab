package personal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyspot-backend/internal/model"
	"studyspot-backend/internal/store"
)

func intP(v int) *int         { return &v }
func int64P(v int64) *int64   { return &v }
func f64P(v float64) *float64 { return &v }
func strP(v string) *string   { return &v }
func boolP(v bool) *bool      { return &v }

func attrs(spaceID int64, capacity int, building string, indoor bool) Attributes {
	return Attributes{
		SpaceID:        spaceID,
		BuildingID:     strP(building),
		Capacity:       intP(capacity),
		MustReserve:    boolP(false),
		TechEnhanced:   boolP(true),
		Indoor:         boolP(indoor),
		TalkingAllowed: boolP(false),
		HasPrinter:     boolP(true),
	}
}

func TestStatsFor(t *testing.T) {
	rows := []Attributes{
		attrs(1, 4, "LLIB", true),
		attrs(2, 8, "LLIB", true),
		{SpaceID: 3, Indoor: boolP(false)}, // unresolved space, most fields nil
	}

	st := statsFor(rows)
	assert.Equal(t, 3, st.Count)
	require.NotNil(t, st.AvgCapacity)
	assert.Equal(t, 6.0, *st.AvgCapacity)
	assert.Equal(t, 4.0, *st.MinCapacity)
	assert.Equal(t, 8.0, *st.MaxCapacity)
	require.NotNil(t, st.IndoorPct)
	assert.InDelta(t, 2.0/3.0, *st.IndoorPct, 1e-9)
	require.NotNil(t, st.HasPrinterPct)
	assert.Equal(t, 1.0, *st.HasPrinterPct, "nil attributes are skipped, not counted as false")
	assert.Equal(t, map[string]int{"LLIB": 2}, st.BuildingCounts)
}

func TestStatsForEmpty(t *testing.T) {
	st := statsFor(nil)
	assert.Equal(t, 0, st.Count)
	assert.Nil(t, st.AvgCapacity)
	assert.Nil(t, st.IndoorPct)
}

func TestAggregateWeighting(t *testing.T) {
	stats := map[string]EventStats{
		EventSessions:  {Count: 2, IndoorPct: f64P(1.0)},
		EventBookmarks: {Count: 1, IndoorPct: f64P(0.0)},
	}

	agg := aggregate(stats)
	require.NotNil(t, agg.IndoorPct)
	// (1.0*1.0 + 1.5*0.0) / (1.0 + 1.5)
	assert.InDelta(t, 0.4, *agg.IndoorPct, 1e-9)
}

func TestAggregateEmptyCollectionsCarryNoWeight(t *testing.T) {
	stats := map[string]EventStats{
		EventSessions:  {Count: 1, TechPct: f64P(1.0)},
		EventBookmarks: {Count: 0},
	}

	agg := aggregate(stats)
	require.NotNil(t, agg.TechPct)
	assert.Equal(t, 1.0, *agg.TechPct)
	assert.Nil(t, agg.IndoorPct)
}

func TestDerivePreference(t *testing.T) {
	agg := Aggregate{
		MinCapacity: f64P(2.4),
		MaxCapacity: f64P(9.1),
		IndoorPct:   f64P(0.5),
		TalkingPct:  f64P(0.49),
		Traffic:     f64P(0.9),
	}

	p := derivePreference(agg)
	require.NotNil(t, p.MinCapacity)
	assert.Equal(t, 2, *p.MinCapacity, "minimum rounds down")
	require.NotNil(t, p.MaxCapacity)
	assert.Equal(t, 10, *p.MaxCapacity, "maximum rounds up")
	require.NotNil(t, p.Indoor)
	assert.True(t, *p.Indoor, "exactly half counts as a majority")
	require.NotNil(t, p.TalkingAllowed)
	assert.False(t, *p.TalkingAllowed)
	assert.Nil(t, p.HasPrinter)
	require.NotNil(t, p.TrafficHigh)
	assert.InDelta(t, 0.7, *p.TrafficLow, 1e-9)
	assert.Equal(t, 1.0, *p.TrafficHigh, "traffic window clamps to [0, 1]")
}

func TestNewProfileSuppression(t *testing.T) {
	h := &History{
		Feedback: []model.SpotFeedback{
			{UserID: "u1", SpaceID: 1, Rating: 2},
			{UserID: "u1", SpaceID: 2, Rating: 3},
			{UserID: "u1", SpaceID: 3, Rating: 5},
		},
	}
	p := FromHistory("u1", h, DefaultAlpha)

	assert.True(t, p.Suppressed(1))
	assert.False(t, p.Suppressed(2))
	assert.False(t, p.Suppressed(3))
	assert.Equal(t, []int64{2, 3}, p.FilterSuppressed([]int64{1, 2, 3}))
}

func TestNewProfileBookmarkRecency(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := &History{
		Bookmarks: []BookmarkEvent{
			{Attributes: Attributes{SpaceID: 5}, CreatedAt: base},
			{Attributes: Attributes{SpaceID: 9}, CreatedAt: base.Add(time.Hour)},
			{Attributes: Attributes{SpaceID: 3}, CreatedAt: base},
		},
	}
	p := FromHistory("u1", h, DefaultAlpha)

	assert.Equal(t, []int64{9, 3, 5}, p.Bookmarked, "most recent first, ties by space id")
}

func TestNewProfileSessionSignals(t *testing.T) {
	h := &History{
		Sessions: []SessionEvent{
			{Attributes: attrs(1, 4, "LLIB", true), DurationMS: int64P(60_000), EndReason: strP(model.EndReasonUserExit)},
			{Attributes: attrs(1, 4, "LLIB", true), DurationMS: int64P(240_000), EndReason: strP(model.EndReasonUserEnd)},
			{Attributes: attrs(2, 8, "GSC", true), EndReason: strP(model.EndReasonNoise), Traffic: f64P(0.6)},
		},
		Views: []ViewEvent{
			{Attributes: attrs(1, 4, "LLIB", true), DwellMS: int64P(30_000)},
			{Attributes: attrs(1, 4, "LLIB", true), DwellMS: int64P(45_000)},
		},
	}
	p := FromHistory("u1", h, DefaultAlpha)

	assert.Equal(t, 2, p.SpaceHistory[1])
	assert.Equal(t, map[string]int{"LLIB": 2, "GSC": 1}, p.BuildingHistory)
	assert.Equal(t, int64(240_000), p.LongestSessionMS(1))
	assert.Equal(t, int64(0), p.LongestSessionMS(2), "session without a duration contributes nothing")
	assert.True(t, p.EndedOrdinarily(1))
	assert.False(t, p.EndedOrdinarily(2))
	assert.True(t, p.EndedByNoise(2))
	assert.Equal(t, int64(75_000), p.DwellMS(1))

	require.NotNil(t, p.Stats[EventSessions].SessionTraffic)
	assert.InDelta(t, 0.6, *p.Stats[EventSessions].SessionTraffic, 1e-9)
}

func TestBuildMarginalsSumToOne(t *testing.T) {
	rows := []Attributes{
		attrs(1, 3, "LLIB", true),
		attrs(2, 8, "LLIB", true),
		attrs(3, 8, "GSC", false),
	}
	m := buildMarginals(rows, DefaultAlpha)

	for attr, dist := range m {
		var sum float64
		for _, p := range dist {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "distribution for %s must sum to 1", attr)
	}

	// 3 observations of building, 2 distinct values, alpha 1:
	// LLIB (2+1)/(3+2) and GSC (1+1)/(3+2).
	assert.InDelta(t, 0.6, m[attrBuilding]["LLIB"], 1e-9)
	assert.InDelta(t, 0.4, m[attrBuilding]["GSC"], 1e-9)
}

func TestBuildMarginalsSkipsUnknownAttributes(t *testing.T) {
	m := buildMarginals([]Attributes{{SpaceID: 1, Indoor: boolP(true)}}, DefaultAlpha)

	assert.Contains(t, m, attrIndoor)
	assert.NotContains(t, m, attrCapacity)
	assert.NotContains(t, m, attrBuilding)
}

func TestFitScoreUnseenValue(t *testing.T) {
	m := buildMarginals([]Attributes{
		attrs(1, 3, "LLIB", true),
		attrs(2, 3, "LLIB", true),
	}, DefaultAlpha)

	match := store.SpaceDetail{ID: 10, Capacity: intP(3), Indoor: true, TechEnhanced: true, BuildingID: strP("LLIB"), HasPrinter: boolP(true)}
	miss := store.SpaceDetail{ID: 11, Capacity: intP(50), Indoor: false, BuildingID: strP("SCI")}

	assert.Greater(t, m.fitScore(match), m.fitScore(miss))
}

func TestFitScoreEmptyMarginals(t *testing.T) {
	m := buildMarginals(nil, DefaultAlpha)
	assert.Zero(t, m.fitScore(store.SpaceDetail{ID: 1, Indoor: true}))
}

func TestLikelihoodFixedDenominator(t *testing.T) {
	h := &History{
		Sessions: []SessionEvent{{Attributes: attrs(1, 3, "LLIB", true)}},
		// No bookmarks or views: they contribute zero but still divide by 3.
	}
	p := FromHistory("u1", h, DefaultAlpha)

	d := store.SpaceDetail{ID: 1, Capacity: intP(3), Indoor: true, TechEnhanced: true, TalkingAllowed: false, MustReserve: false, BuildingID: strP("LLIB"), HasPrinter: boolP(true)}
	want := 1.0 * p.sessionMarginals.fitScore(d) / 3.0
	assert.InDelta(t, want, p.Likelihood(d), 1e-9)
	assert.Less(t, p.Likelihood(d), 1.0)
}

func TestEmptyHistoryIsNeutral(t *testing.T) {
	p := FromHistory("new-user", &History{}, DefaultAlpha)

	assert.Nil(t, p.Preference.MinCapacity)
	assert.Nil(t, p.Preference.Indoor)
	assert.Empty(t, p.Bookmarked)
	assert.Equal(t, []int64{1, 2}, p.FilterSuppressed([]int64{1, 2}))
	assert.Zero(t, p.Likelihood(store.SpaceDetail{ID: 1, Indoor: true}))
}
