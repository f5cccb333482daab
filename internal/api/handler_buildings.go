package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetBuildings handles GET /api/buildings.
func (h *Handler) GetBuildings(c *gin.Context) {
	buildings, err := h.svc.AvailableBuildings(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to retrieve buildings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": buildings})
}
