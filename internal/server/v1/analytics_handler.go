package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-orchestrator/internal/core/domain"
	"github.com/nulzo/model-orchestrator/internal/store"
)

type AnalyticsHandler struct {
	repo store.Repository
}

func NewAnalyticsHandler(repo store.Repository) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo}
}

// GetDaily returns per-day routing aggregates for the last N days.
func (h *AnalyticsHandler) GetDaily(c *gin.Context) {
	daysStr := c.DefaultQuery("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days < 1 {
		_ = c.Error(domain.BadRequestError("days must be a positive integer"))
		return
	}

	stats, err := h.repo.Dispatches().GetDailyStats(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(domain.InternalError("Failed to fetch daily stats", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   stats,
	})
}

// GetRecent returns the most recent dispatch logs, newest first.
func (h *AnalyticsHandler) GetRecent(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		_ = c.Error(domain.BadRequestError("limit must be a positive integer"))
		return
	}

	logs, err := h.repo.Dispatches().GetRecent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(domain.InternalError("Failed to fetch recent dispatches", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   logs,
	})
}
