package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"knesset-pulse/internal/logger"
	"knesset-pulse/internal/model"
	"knesset-pulse/internal/search"
	"knesset-pulse/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	answer *service.AnswerService
}

func NewChatHandler(answer *service.AnswerService) *ChatHandler {
	return &ChatHandler{answer: answer}
}

type sseWriter struct {
	w http.Flusher
	f gin.ResponseWriter
}

func (s *sseWriter) event(name string, data interface{}) {
	j, _ := json.Marshal(data)
	fmt.Fprintf(s.f, "event: %s\ndata: %s\n\n", name, j)
	s.w.Flush()
}

func (s *sseWriter) token(t string) {
	s.event("token", map[string]string{"token": t})
}

func (s *sseWriter) done() {
	s.event("done", map[string]string{})
}

// Chat answers one conversation synchronously as a single JSON payload.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res, err := h.answer.Answer(c.Request.Context(), req.Messages, nil)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ChatStream answers one conversation over SSE: token events while the model
// streams, then a result event carrying sources, stats and images.
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := service.ValidateConversation(req.Messages); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// The request context is canceled when the client disconnects, which
	// tears down the in-flight upstream model call as well.
	sse := &sseWriter{w: c.Writer, f: c.Writer}
	res, err := h.answer.Answer(c.Request.Context(), req.Messages, sse.token)
	if err != nil {
		logger.Error("chat stream failed", "err", err)
		sse.event("error", gin.H{"error": "שגיאה: " + err.Error()})
		sse.done()
		return
	}

	sse.event("result", gin.H{
		"sources": res.Sources,
		"stats":   res.Stats,
		"images":  res.Images,
	})
	sse.done()
}

func (h *ChatHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoMessages), errors.Is(err, service.ErrInvalidMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, search.ErrMissingKey):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SERPAPI_KEY not set in environment"})
	default:
		logger.Error("chat failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
