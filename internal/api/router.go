package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"equipment-visualizer-backend/internal/mw"
	"equipment-visualizer-backend/internal/store"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	RateLimitPerSec float64
	RateLimitBurst  int
}

// limiter entries of idle clients expire after this long
const rateLimitIdle = 10 * time.Minute

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, log *zap.Logger, opts RouterOptions) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(log.Named("http")))
	r.MaxMultipartMemory = 8 << 20

	handler := NewHandler(s, log)
	limiter := mw.NewIPRateLimiter(rate.Limit(opts.RateLimitPerSec), opts.RateLimitBurst, rateLimitIdle)
	auth := mw.TokenAuth(s, log)

	r.GET("/healthz", handler.Healthz)

	// API group
	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter))
	{
		api.POST("/auth/register/", handler.Register)
		api.POST("/auth/login/", handler.Login)
		api.POST("/auth/logout/", auth, handler.Logout)

		api.POST("/upload-csv/", auth, handler.UploadCSV)
		api.GET("/summary/", auth, handler.GetSummary)
		api.GET("/history/", auth, handler.GetHistory)

		api.GET("/generate-pdf/", auth, handler.GeneratePDF)
		api.POST("/generate-pdf/", auth, handler.GeneratePDF)
		api.GET("/generate-pdf/:upload_id/", auth, handler.GeneratePDF)
		api.GET("/generate-xlsx/", auth, handler.GenerateXLSX)
		api.POST("/generate-xlsx/", auth, handler.GenerateXLSX)
		api.GET("/generate-xlsx/:upload_id/", auth, handler.GenerateXLSX)

		equipment := api.Group("/equipment", auth)
		equipment.GET("/", handler.ListEquipment)
		equipment.POST("/", handler.CreateEquipment)
		equipment.GET("/:id/", handler.GetEquipment)
		equipment.PUT("/:id/", handler.UpdateEquipment)
		equipment.PATCH("/:id/", handler.UpdateEquipment)
		equipment.DELETE("/:id/", handler.DeleteEquipment)
	}

	return r
}
