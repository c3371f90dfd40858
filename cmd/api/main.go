package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gavril-s/meme-search-bot/internal/api"
	"github.com/gavril-s/meme-search-bot/internal/api/middleware"
	"github.com/gavril-s/meme-search-bot/internal/config"
	"github.com/gavril-s/meme-search-bot/internal/logger"
	"github.com/gavril-s/meme-search-bot/internal/repository"
	"github.com/gavril-s/meme-search-bot/internal/search"
	"github.com/gavril-s/meme-search-bot/internal/service"
)

func main() {
	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(logger.FromEnv())
	logger.SetDefault(appLogger)
	defer logger.Sync()

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	records := repository.NewMemeRecordRepository(db)

	engine := search.NewEngine(search.Config{
		TopK:             cfg.Search.TopK,
		TrigramThreshold: cfg.Search.TrigramThreshold,
		TrigramFallback:  cfg.Search.TrigramFallback,
	})
	searchService := service.NewSearchService(engine, records, appLogger, cfg.Search.WarmupBatchSize)

	if err := searchService.WarmUp(context.Background()); err != nil {
		appLogger.WithError(err).Fatal("Failed to warm up search index")
	}

	// The API binary serves the committed corpus; ingestion runs in cmd/bot.
	router := api.SetupRouter(searchService, nil, cfg.Server.Mode, middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
