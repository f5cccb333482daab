package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"studyspot-backend/internal/model"
)

type sessionRequest struct {
	SpaceID    int64      `json:"study_space_id" binding:"required"`
	BuildingID *string    `json:"building_id"`
	StartedAt  time.Time  `json:"started_at" binding:"required"`
	EndedAt    *time.Time `json:"ended_at"`
	DurationMS *int64     `json:"duration_ms"`
	EndReason  *string    `json:"ended_reason"`
}

// PostSession handles POST /api/users/:user_id/sessions. Stored sessions are
// stamped with the closest-hour weather label and the building's latest
// traffic sample; either lookup failing leaves the field null.
func (h *Handler) PostSession(c *gin.Context) {
	userID := c.Param("user_id")
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid session payload"})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.EnsureUser(ctx, userID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store session"})
		return
	}

	session := &model.StudySession{
		ID:         uuid.NewString(),
		UserID:     userID,
		SpaceID:    req.SpaceID,
		BuildingID: req.BuildingID,
		StartedAt:  req.StartedAt,
		EndedAt:    req.EndedAt,
		DurationMS: req.DurationMS,
		EndReason:  req.EndReason,
	}

	date, hour := nearestHour(req.StartedAt)
	weather, err := h.store.WeatherLabel(ctx, date, hour)
	if err != nil {
		log.Printf("session enrichment: weather lookup failed: %v", err)
	} else {
		session.StartWeather = weather
	}
	if req.BuildingID != nil {
		traffic, err := h.store.LatestTraffic(ctx, *req.BuildingID)
		if err != nil {
			log.Printf("session enrichment: traffic lookup failed: %v", err)
		} else {
			session.SessionTraffic = traffic
		}
	}

	if err := h.store.CreateSession(ctx, session); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "session_id": session.ID})
}

type bookmarkRequest struct {
	SpaceID    int64     `json:"study_space_id" binding:"required"`
	BuildingID *string   `json:"building_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// PutBookmark handles PUT /api/users/:user_id/bookmarks.
func (h *Handler) PutBookmark(c *gin.Context) {
	userID := c.Param("user_id")
	var req bookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid bookmark payload"})
		return
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	ctx := c.Request.Context()
	if err := h.store.EnsureUser(ctx, userID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store bookmark"})
		return
	}
	bookmark := &model.Bookmark{
		ID:         uuid.NewString(),
		UserID:     userID,
		SpaceID:    req.SpaceID,
		BuildingID: req.BuildingID,
		CreatedAt:  req.CreatedAt,
	}
	if err := h.store.SaveBookmark(ctx, bookmark); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store bookmark"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteBookmark handles DELETE /api/users/:user_id/bookmarks.
func (h *Handler) DeleteBookmark(c *gin.Context) {
	userID := c.Param("user_id")
	var req struct {
		SpaceID int64 `json:"study_space_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid bookmark payload"})
		return
	}
	if err := h.store.DeleteBookmark(c.Request.Context(), userID, req.SpaceID, time.Now().UTC()); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to delete bookmark"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type feedbackRequest struct {
	SpaceID    int64   `json:"study_space_id" binding:"required"`
	BuildingID *string `json:"building_id"`
	Rating     int     `json:"rating" binding:"required"`
}

// PostFeedback handles POST /api/users/:user_id/feedback. The latest rating
// per (user, space) wins.
func (h *Handler) PostFeedback(c *gin.Context) {
	userID := c.Param("user_id")
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid feedback payload"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "rating must be between 1 and 5"})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.EnsureUser(ctx, userID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store feedback"})
		return
	}
	feedback := &model.SpotFeedback{
		UserID:     userID,
		SpaceID:    req.SpaceID,
		BuildingID: req.BuildingID,
		Rating:     req.Rating,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := h.store.UpsertFeedback(ctx, feedback); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store feedback"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type viewRequest struct {
	SpaceID    int64      `json:"study_space_id" binding:"required"`
	BuildingID *string    `json:"building_id"`
	OpenedAt   time.Time  `json:"opened_at" binding:"required"`
	ClosedAt   *time.Time `json:"closed_at"`
	DwellMS    *int64     `json:"dwell_ms"`
	Source     *string    `json:"source"`
	ListRank   *int       `json:"list_rank"`
}

// PostView handles POST /api/users/:user_id/views.
func (h *Handler) PostView(c *gin.Context) {
	userID := c.Param("user_id")
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid view payload"})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.EnsureUser(ctx, userID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store view"})
		return
	}
	view := &model.SpotDetailView{
		ID:         uuid.NewString(),
		UserID:     userID,
		SpaceID:    req.SpaceID,
		BuildingID: req.BuildingID,
		OpenedAt:   req.OpenedAt,
		ClosedAt:   req.ClosedAt,
		DwellMS:    req.DwellMS,
		Source:     req.Source,
		ListRank:   req.ListRank,
	}
	if err := h.store.CreateView(ctx, view); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store view"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

type filtersRequest struct {
	MinCapacity    *int  `json:"min_capacity"`
	MaxCapacity    *int  `json:"max_capacity"`
	TechEnhanced   *bool `json:"tech_enhanced"`
	HasPrinter     *bool `json:"has_printer"`
	Indoor         *bool `json:"is_indoor"`
	TalkingAllowed *bool `json:"is_talking_allowed"`
}

// PutFilters handles PUT /api/users/:user_id/filters: one row per user, last
// submission wins.
func (h *Handler) PutFilters(c *gin.Context) {
	userID := c.Param("user_id")
	var req filtersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid filters payload"})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.EnsureUser(ctx, userID); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store filters"})
		return
	}

	raw, _ := json.Marshal(req)
	entry := &model.SearchFilterLog{
		UserID:         userID,
		MinCapacity:    req.MinCapacity,
		MaxCapacity:    req.MaxCapacity,
		TechEnhanced:   req.TechEnhanced,
		HasPrinter:     req.HasPrinter,
		Indoor:         req.Indoor,
		TalkingAllowed: req.TalkingAllowed,
		Raw:            raw,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := h.store.SaveFilterLog(ctx, entry); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to store filters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetProfile handles GET /api/users/:user_id/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.svc.Profile(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to build profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": profile})
}

// nearestHour rounds a timestamp to its closest hour boundary and splits it
// into the date and "HH:MM" keys the hourly weather table uses.
func nearestHour(t time.Time) (date, hour string) {
	rounded := t.Add(30 * time.Minute).Truncate(time.Hour)
	return rounded.Format("2006-01-02"), rounded.Format("15:04")
}
