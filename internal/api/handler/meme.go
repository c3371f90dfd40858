package handler

import (
	"net/http"

	"github.com/gavril-s/meme-search-bot/internal/service"
	"github.com/gin-gonic/gin"
)

// MemeHandler handles meme record endpoints.
type MemeHandler struct {
	searchService *service.SearchService
}

// NewMemeHandler creates a new meme handler.
func NewMemeHandler(searchService *service.SearchService) *MemeHandler {
	return &MemeHandler{
		searchService: searchService,
	}
}

// GetMeme handles GET /api/v1/memes/:id.
func (h *MemeHandler) GetMeme(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Meme ID is required",
		})
		return
	}

	meme, err := h.searchService.GetMemeByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Meme not found",
		})
		return
	}

	c.JSON(http.StatusOK, meme)
}
