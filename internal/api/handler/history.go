package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/cinematch/internal/service"
)

const maxHistoryLimit = 100

// HistoryHandler serves the search history and corpus statistics.
type HistoryHandler struct {
	svc *service.RecommendService
}

func NewHistoryHandler(svc *service.RecommendService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// Recent handles GET /api/v1/history?limit=N.
func (h *HistoryHandler) Recent(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(v, maxHistoryLimit)
	}

	ctx := c.Request.Context()
	entries, err := h.svc.RecentSearches(ctx, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	total, err := h.svc.HistoryTotal(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"history": toHistoryItems(entries),
		"total":   total,
	})
}

// Stats handles GET /api/v1/stats.
func (h *HistoryHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}
