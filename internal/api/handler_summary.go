package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equipment-visualizer-backend/internal/mw"
)

// GetSummary handles GET /api/summary/.
func (h *Handler) GetSummary(c *gin.Context) {
	sum, err := h.analytics.Summary(c.Request.Context(), mw.CurrentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GetHistory handles GET /api/history/.
func (h *Handler) GetHistory(c *gin.Context) {
	hist, err := h.analytics.History(c.Request.Context(), mw.CurrentUser(c).ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

// Healthz reports whether the database answers.
func (h *Handler) Healthz(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
