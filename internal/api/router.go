package api

import (
	"github.com/gavril-s/meme-search-bot/internal/api/handler"
	"github.com/gavril-s/meme-search-bot/internal/api/middleware"
	"github.com/gavril-s/meme-search-bot/internal/service"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	searchService *service.SearchService,
	ingestService *service.IngestService,
	mode string,
	cors middleware.CORSConfig,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cors))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	searchHandler := handler.NewSearchHandler(searchService)
	memeHandler := handler.NewMemeHandler(searchService)
	statsHandler := handler.NewStatsHandler(searchService, ingestService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Search
		v1.POST("/search", searchHandler.Search)
		v1.GET("/search", searchHandler.SearchGet)

		// Memes
		v1.GET("/memes/:id", memeHandler.GetMeme)

		// Stats
		v1.GET("/stats", statsHandler.GetStats)
	}

	return r
}
