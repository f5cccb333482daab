package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studyspot-backend/internal/availability"
	"studyspot-backend/internal/index"
	"studyspot-backend/internal/rank"
)

type windowRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type searchRequest struct {
	Filters      index.Filters  `json:"filters"`
	Window       *windowRequest `json:"window"`
	UserLocation *rank.Location `json:"user_location"`
}

type rankRequest struct {
	UserID       string         `json:"user_id"`
	Filters      index.Filters  `json:"filters"`
	Window       *windowRequest `json:"window"`
	UserLocation *rank.Location `json:"user_location"`
}

// Search handles POST /api/search: anonymous filtered search, availability
// narrowed and ordered by filter-match score.
func (h *Handler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	window, ok := resolveWindow(c, req.Window)
	if !ok {
		return
	}

	results, err := h.svc.SearchDetails(c.Request.Context(), req.Filters, window, req.UserLocation)
	if err != nil {
		abortPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(results), "data": results})
}

// Rank handles POST /api/rank: the full personalized pipeline for one user.
func (h *Handler) Rank(c *gin.Context) {
	var req rankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request body"})
		return
	}
	if req.UserID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "user_id is required"})
		return
	}
	window, ok := resolveWindow(c, req.Window)
	if !ok {
		return
	}

	results, err := h.svc.Rank(c.Request.Context(), req.UserID, req.Filters, window, req.UserLocation)
	if err != nil {
		abortPipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(results), "data": results})
}

// resolveWindow validates an optional explicit window. Absent means "right
// now".
func resolveWindow(c *gin.Context, req *windowRequest) (availability.Window, bool) {
	if req == nil {
		return availability.Window{}, true
	}
	if req.Start.IsZero() || req.End.IsZero() || !req.Start.Before(req.End) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": "window requires start < end"})
		return availability.Window{}, false
	}
	return availability.Window{Start: req.Start, End: req.End}, true
}

// abortPipelineError maps structural failures to status codes: an unpublished
// index means the service is not ready to serve, everything else is a 500.
func abortPipelineError(c *gin.Context, err error) {
	if errors.Is(err, index.ErrNotReady) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "index not ready"})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "query failed"})
}
