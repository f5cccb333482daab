package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyspot-backend/config"
	"studyspot-backend/internal/api"
	"studyspot-backend/internal/db"
	"studyspot-backend/internal/index"
	"studyspot-backend/internal/loader"
	"studyspot-backend/internal/query"
	"studyspot-backend/internal/rank"
	"studyspot-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "studyspot-backend ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Publish an initial index generation before serving; a service with no
	// index is not ready to answer queries.
	indexMgr := index.NewManager(appStore, cfg.Index.ArtifactPath, cfg.Index.RebuildInterval)
	if err := indexMgr.Bootstrap(ctx); err != nil {
		logger.Fatalf("failed to bootstrap attribute index: %v", err)
	}
	go indexMgr.Run(ctx)

	// Ingest scraped JSON in the background.
	loaderSvc := loader.NewService(&cfg.Loader, appStore, indexMgr)
	go loaderSvc.Run(ctx)

	scorer := rank.NewScorer(rank.Strategy(cfg.Ranking.Strategy), cfg.Ranking.ProbabilityWeight)
	querySvc := query.NewService(appStore, indexMgr, scorer, cfg.Ranking.SmoothingAlpha)

	router := api.NewRouter(querySvc, appStore, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
