package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gavril-s/meme-search-bot/internal/config"
	"github.com/gavril-s/meme-search-bot/internal/logger"
	"github.com/gavril-s/meme-search-bot/internal/repository"
	"github.com/gavril-s/meme-search-bot/internal/search"
	"github.com/gavril-s/meme-search-bot/internal/service"
	"github.com/gavril-s/meme-search-bot/internal/storage"
	"github.com/gavril-s/meme-search-bot/internal/telegram"
	"github.com/gavril-s/meme-search-bot/internal/tracker"
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

	if cfg.Telegram.BotToken == "" {
		appLogger.Fatal("TELEGRAM_BOT_TOKEN is required")
	}

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

	trk := tracker.New(tracker.Config{
		TTL:           cfg.Tracker.TTL,
		RecencyWindow: cfg.Tracker.RecencyWindow,
	})

	bot, err := telegram.NewBot(telegram.Config{
		Token:             cfg.Telegram.BotToken,
		WatchChatID:       cfg.Telegram.WatchChatID,
		WatchChatUsername: cfg.Telegram.WatchChatUsername,
		PollTimeout:       cfg.Telegram.PollTimeout,
		Debug:             cfg.Telegram.Debug,
	}, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create Telegram bot")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var archiver *service.MediaArchiver
	if cfg.Storage.Enabled {
		objectStorage, err := storage.New(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if s3, ok := objectStorage.(*storage.S3Storage); ok {
			if err := s3.EnsureBucket(ctx); err != nil {
				appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
			}
		}
		archiver = service.NewMediaArchiver(bot, objectStorage, appLogger)
	}

	ingestService := service.NewIngestService(trk, records, engine, archiver, appLogger)
	searchService := service.NewSearchService(engine, records, appLogger, cfg.Search.WarmupBatchSize)
	bot.SetPipeline(ingestService, searchService)

	if err := searchService.WarmUp(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to warm up search index")
	}

	go trk.Run(ctx, cfg.Tracker.SweepInterval)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		appLogger.Info("Shutting down bot...")
		cancel()
	}()

	appLogger.Info("Starting Telegram bot")
	bot.Run(ctx)
	appLogger.Info("Bot exited")
}
