package handler

import (
	"net/http"

	"github.com/gavril-s/meme-search-bot/internal/service"
	"github.com/gin-gonic/gin"
)

// StatsHandler exposes corpus and pipeline statistics.
type StatsHandler struct {
	searchService *service.SearchService
	ingestService *service.IngestService
}

// NewStatsHandler creates a new stats handler. ingestService may be nil when
// the API runs without the ingestion pipeline.
func NewStatsHandler(searchService *service.SearchService, ingestService *service.IngestService) *StatsHandler {
	return &StatsHandler{
		searchService: searchService,
		ingestService: ingestService,
	}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	stats, err := h.searchService.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get stats: " + err.Error(),
		})
		return
	}

	if h.ingestService != nil {
		stats["pending_images"] = h.ingestService.PendingImages()
	}

	c.JSON(http.StatusOK, stats)
}
