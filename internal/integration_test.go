package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"studyspot-backend/config"
	"studyspot-backend/internal/api"
	"studyspot-backend/internal/db"
	"studyspot-backend/internal/index"
	"studyspot-backend/internal/model"
	"studyspot-backend/internal/query"
	"studyspot-backend/internal/rank"
	"studyspot-backend/internal/store"
)

func boolP(v bool) *bool      { return &v }
func intP(v int) *int         { return &v }
func strP(v string) *string   { return &v }
func f64P(v float64) *float64 { return &v }

type apiResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    []struct {
		ID    int64   `json:"id"`
		Score float64 `json:"score"`
	} `json:"data"`
}

// setupPipeline wires a sqlite-backed store, a freshly built index, the query
// service, and the HTTP router around seeded campus data.
func setupPipeline(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(testDB))

	s := store.NewGormStore(testDB)
	ctx := context.Background()

	require.NoError(t, s.UpsertBuildings(ctx, []model.Building{
		{ID: "LLIB", Name: "Langson Library", HasPrinter: boolP(true), OpeningTime: "08:00", ClosingTime: "23:00", Latitude: f64P(33.6469), Longitude: f64P(-117.8411)},
		{ID: "GSC", Name: "Graduate Student Center", OpeningTime: "09:00", ClosingTime: "17:00"},
	}))
	require.NoError(t, s.UpsertSpaces(ctx, []model.Space{
		{ID: 1, Name: "Study Room 101", Capacity: intP(3), MustReserve: false, TechEnhanced: true, Indoor: true, TalkingAllowed: false, BuildingID: strP("LLIB")},
		{ID: 2, Name: "Group Room 210", Capacity: intP(8), MustReserve: true, TechEnhanced: false, Indoor: true, TalkingAllowed: true, BuildingID: strP("LLIB")},
		{ID: 3, Name: "Courtyard Table", Capacity: intP(3), MustReserve: false, TechEnhanced: false, Indoor: false, TalkingAllowed: false, BuildingID: strP("GSC")},
		{ID: 4, Name: "Seminar Room", Capacity: intP(15), MustReserve: true, TechEnhanced: true, Indoor: true, TalkingAllowed: true, BuildingID: strP("GSC")},
	}))

	// Space 2 has a fresh bookable slot; space 4 has no slot data at all.
	now := time.Now().UTC()
	require.NoError(t, s.ReplaceAvailability(ctx, []model.AvailabilitySlot{
		{SpaceID: 2, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour), Available: true, ScrapedAt: now},
	}))

	indexMgr := index.NewManager(s, filepath.Join(t.TempDir(), "filters_index.json"), 0)
	require.NoError(t, indexMgr.RebuildOnce(ctx))

	scorer := rank.NewScorer(rank.StrategyHeuristic, rank.DefaultProbabilityWeight)
	svc := query.NewService(s, indexMgr, scorer, 1.0)

	serverCfg := &config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 1}
	return api.NewRouter(svc, s, serverCfg), s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
	}
	return w, resp
}

func resultIDs(resp apiResponse) []int64 {
	ids := make([]int64, len(resp.Data))
	for i, d := range resp.Data {
		ids[i] = d.ID
	}
	return ids
}

// TestSearchAndRankPipeline walks the full request path: index filtering,
// availability narrowing, event ingestion, and personalized ranking.
func TestSearchAndRankPipeline(t *testing.T) {
	router, _ := setupPipeline(t)

	t.Run("filtered search returns only matching spaces", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/api/search", gin.H{
			"filters": gin.H{"capacity_range": "1-4", "indoor": true},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, []int64{1}, resultIDs(resp), "only the indoor capacity-3 space matches")
	})

	t.Run("unknown capacity bucket yields empty results, not an error", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/api/search", gin.H{
			"filters": gin.H{"capacity_range": "2-6"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Zero(t, resp.Count)
	})

	t.Run("must-reserve space without fresh slots is excluded", func(t *testing.T) {
		w, resp := doJSON(t, router, http.MethodPost, "/api/search", gin.H{})
		require.Equal(t, http.StatusOK, w.Code)
		ids := resultIDs(resp)
		assert.Contains(t, ids, int64(2), "fresh covering slot makes the bookable room usable")
		assert.NotContains(t, ids, int64(4), "no slot data means unavailable")
	})

	t.Run("explicit window is honored", func(t *testing.T) {
		// The seeded slot for space 2 ends an hour from now.
		w, resp := doJSON(t, router, http.MethodPost, "/api/search", gin.H{
			"window": gin.H{
				"start": time.Now().UTC().Add(2 * time.Hour),
				"end":   time.Now().UTC().Add(3 * time.Hour),
			},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, resultIDs(resp), int64(2))
	})

	t.Run("invalid window is rejected", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/search", gin.H{
			"window": gin.H{"start": time.Now().UTC(), "end": time.Now().UTC().Add(-time.Hour)},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("new user ranking is deterministic", func(t *testing.T) {
		first, resp1 := doJSON(t, router, http.MethodPost, "/api/rank", gin.H{"user_id": "ghost"})
		second, resp2 := doJSON(t, router, http.MethodPost, "/api/rank", gin.H{"user_id": "ghost"})
		require.Equal(t, http.StatusOK, first.Code)
		require.Equal(t, http.StatusOK, second.Code)

		// Open spaces 1 and 3 share the no-reserve bonus, ties break by id.
		assert.Equal(t, []int64{1, 3, 2}, resultIDs(resp1))
		assert.Equal(t, resultIDs(resp1), resultIDs(resp2))
	})

	t.Run("low rating suppresses a space for that user only", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/users/alice/feedback", gin.H{
			"study_space_id": 2, "rating": 2,
		})
		require.Equal(t, http.StatusOK, w.Code)

		_, ranked := doJSON(t, router, http.MethodPost, "/api/rank", gin.H{"user_id": "alice"})
		assert.NotContains(t, resultIDs(ranked), int64(2))

		_, other := doJSON(t, router, http.MethodPost, "/api/rank", gin.H{"user_id": "ghost"})
		assert.Contains(t, resultIDs(other), int64(2))
	})

	t.Run("session history boosts a space in personalized ranking", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/users/bob/sessions", gin.H{
			"study_space_id": 3,
			"building_id":    "GSC",
			"started_at":     time.Now().UTC().Add(-time.Hour),
			"duration_ms":    600000,
			"ended_reason":   model.EndReasonUserEnd,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		_, ranked := doJSON(t, router, http.MethodPost, "/api/rank", gin.H{"user_id": "bob"})
		require.NotEmpty(t, ranked.Data)
		assert.Equal(t, int64(3), ranked.Data[0].ID, "a long, ordinarily ended session outweighs the default order")
	})

	t.Run("out of range rating is rejected", func(t *testing.T) {
		w, _ := doJSON(t, router, http.MethodPost, "/api/users/alice/feedback", gin.H{
			"study_space_id": 1, "rating": 6,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// TestBookmarkLifecycle covers create, delete, and revive through the API and
// their effect on the computed profile.
func TestBookmarkLifecycle(t *testing.T) {
	router, s := setupPipeline(t)
	ctx := context.Background()

	w, _ := doJSON(t, router, http.MethodPut, "/api/users/carol/bookmarks", gin.H{
		"study_space_id": 1, "building_id": "LLIB",
	})
	require.Equal(t, http.StatusOK, w.Code)

	bookmarks, err := s.BookmarksForUser(ctx, "carol")
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)

	w, _ = doJSON(t, router, http.MethodDelete, "/api/users/carol/bookmarks", gin.H{
		"study_space_id": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	bookmarks, err = s.BookmarksForUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, bookmarks, "deleted bookmarks drop out of the active set")

	// Bookmarking again revives the row.
	w, _ = doJSON(t, router, http.MethodPut, "/api/users/carol/bookmarks", gin.H{
		"study_space_id": 1, "building_id": "LLIB",
	})
	require.Equal(t, http.StatusOK, w.Code)

	bookmarks, err = s.BookmarksForUser(ctx, "carol")
	require.NoError(t, err)
	assert.Len(t, bookmarks, 1)
}

// TestSessionEnrichment verifies weather and traffic stamping at ingest time.
func TestSessionEnrichment(t *testing.T) {
	router, s := setupPipeline(t)
	ctx := context.Background()

	startedAt := time.Date(2026, 3, 1, 13, 40, 0, 0, time.UTC)
	require.NoError(t, s.DB().Create(&model.HourlyWeather{
		Date: "2026-03-01", Hour: "14:00", WeatherText: "Mostly sunny",
	}).Error)
	require.NoError(t, s.DB().Create(&model.LibraryTraffic{
		BuildingID: strP("LLIB"), LocationName: "Langson Library",
		TrafficCount: 120, TrafficPercentage: 0.45, Timestamp: startedAt.Add(-10 * time.Minute),
	}).Error)

	w, _ := doJSON(t, router, http.MethodPost, "/api/users/dave/sessions", gin.H{
		"study_space_id": 1,
		"building_id":    "LLIB",
		"started_at":     startedAt,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	sessions, err := s.SessionsForUser(ctx, "dave")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	// 13:40 rounds to the 14:00 weather row.
	require.NotNil(t, sessions[0].StartWeather)
	assert.Equal(t, "Mostly sunny", *sessions[0].StartWeather)
	require.NotNil(t, sessions[0].SessionTraffic)
	assert.InDelta(t, 0.45, *sessions[0].SessionTraffic, 1e-9)
}
