package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"studyspot-backend/config"
	"studyspot-backend/internal/mw"
	"studyspot-backend/internal/query"
	"studyspot-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *query.Service, s store.Store, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, s)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/health", handler.Health)
		api.GET("/buildings", caching, handler.GetBuildings)

		// The retrieval-and-ranking pipeline.
		api.POST("/search", handler.Search)
		api.POST("/rank", handler.Rank)

		// Per-user event history feeding the preference model.
		users := api.Group("/users/:user_id")
		{
			users.GET("/profile", handler.GetProfile)
			users.POST("/sessions", handler.PostSession)
			users.PUT("/bookmarks", handler.PutBookmark)
			users.DELETE("/bookmarks", handler.DeleteBookmark)
			users.POST("/feedback", handler.PostFeedback)
			users.POST("/views", handler.PostView)
			users.PUT("/filters", handler.PutFilters)
		}
	}

	return r
}
