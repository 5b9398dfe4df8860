package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"equipment-visualizer-backend/internal/analytics"
	"equipment-visualizer-backend/internal/ingest"
	"equipment-visualizer-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	ingest    *ingest.Service
	analytics *analytics.Service
	log       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:     s,
		ingest:    ingest.NewService(s, log.Named("ingest")),
		analytics: analytics.NewService(s),
		log:       log,
	}
}

// fail writes err as {"error": ...}. Not-found maps to 404; anything the
// handler did not classify is logged and reported as 500.
func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found."})
		return
	}
	h.log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// bind decodes the body by content type. An empty body leaves req untouched.
func bind(c *gin.Context, req any) error {
	if err := c.ShouldBind(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
