package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyspot-backend/internal/query"
	"studyspot-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc   *query.Service
	store store.Store
}

// NewHandler creates a new API handler.
func NewHandler(svc *query.Service, s store.Store) *Handler {
	return &Handler{svc: svc, store: s}
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "API is running"})
}
