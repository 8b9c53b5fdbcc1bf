package handler

import (
	"net/http"

	"knesset-pulse/internal/logger"
	"knesset-pulse/internal/service"

	"github.com/gin-gonic/gin"
)

type NewsHandler struct {
	news *service.NewsService
}

func NewNewsHandler(news *service.NewsService) *NewsHandler {
	return &NewsHandler{news: news}
}

// GET /api/news
func (h *NewsHandler) Posts(c *gin.Context) {
	posts, err := h.news.Posts(c.Request.Context())
	if err != nil {
		logger.Error("news generation failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
