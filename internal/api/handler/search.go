package handler

import (
	"net/http"

	"github.com/gavril-s/meme-search-bot/internal/service"
	"github.com/gin-gonic/gin"
)

// SearchHandler handles search-related endpoints.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search handles POST /api/v1/search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	result := h.searchService.Search(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, result)
}

// SearchGet handles GET /api/v1/search for simple search queries.
func (h *SearchHandler) SearchGet(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query parameter 'q' is required",
		})
		return
	}

	result := h.searchService.Search(c.Request.Context(), query)
	c.JSON(http.StatusOK, result)
}
