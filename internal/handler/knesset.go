package handler

import (
	"errors"
	"net/http"
	"time"

	"knesset-pulse/internal/knesset"
	"knesset-pulse/internal/logger"
	"knesset-pulse/internal/service"

	"github.com/gin-gonic/gin"
)

type KnessetHandler struct {
	sync   *service.SyncService
	stats  *service.StatsService
	client *knesset.Client
}

func NewKnessetHandler(sync *service.SyncService, stats *service.StatsService, client *knesset.Client) *KnessetHandler {
	return &KnessetHandler{sync: sync, stats: stats, client: client}
}

// Sync is the manual admin trigger for a full weekly sync run.
func (h *KnessetHandler) Sync(c *gin.Context) {
	res, err := h.sync.Run(c.Request.Context())
	if err != nil {
		h.writeSyncError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// WeeklyUpdate is the scheduled trigger. Same pipeline as Sync, with the
// cron-facing message.
func (h *KnessetHandler) WeeklyUpdate(c *gin.Context) {
	res, err := h.sync.Run(c.Request.Context())
	if err != nil {
		h.writeSyncError(c, err)
		return
	}
	res.Message = "עדכון שבועי הושלם בהצלחה"
	c.JSON(http.StatusOK, res)
}

func (h *KnessetHandler) writeSyncError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSyncRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	logger.Error("sync failed", "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// GET /api/weekly-top
func (h *KnessetHandler) WeeklyTop(c *gin.Context) {
	top, err := h.stats.WeeklyTop(c.Request.Context())
	if err != nil {
		logger.Error("weekly top failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "שגיאה בטעינת הנתונים השבועיים"})
		return
	}
	c.JSON(http.StatusOK, top)
}

// GET /api/mk-weekly-stats
func (h *KnessetHandler) WeeklyStats(c *gin.Context) {
	entries, err := h.stats.RecentStats(c.Request.Context(), 20)
	if err != nil {
		logger.Error("weekly stats failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GET /api/knesset/weekly-report
func (h *KnessetHandler) WeeklyReport(c *gin.Context) {
	report, err := h.stats.WeeklyReport(c.Request.Context(), time.Now())
	if err != nil {
		logger.Error("weekly report failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "שגיאה בטעינת הדוח השבועי"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/knesset-data?q=...
func (h *KnessetHandler) DataSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	c.JSON(http.StatusOK, h.client.SearchData(c.Request.Context(), query))
}
