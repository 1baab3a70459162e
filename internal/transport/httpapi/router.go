package httpapi

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig controls the engine built by NewRouter
type RouterConfig struct {
	APIKey string
	// MaxUploadBytes bounds multipart parsing memory
	MaxUploadBytes int64
	// Gatherer backs GET /metrics; nil means the default registry
	Gatherer prometheus.Gatherer
	Release  bool
}

// NewRouter wires every route. GET /, /health and /metrics stay open when an API key
// is configured.
func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) *gin.Engine {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recovery(logger), requestLogger(logger))
	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := router.Group("/")
	api.Use(apiKeyAuth(cfg.APIKey))
	{
		api.POST("/analyze", h.Analyze)
		api.POST("/analyze/async", h.AnalyzeAsync)
		api.GET("/statistics", h.Statistics)
		api.GET("/complaints", h.ListComplaints)
		api.GET("/complaints/export", h.ExportComplaints)
		api.GET("/complaints/:number", h.GetComplaint)
		api.GET("/complaints/:number/logs", h.ComplaintLogs)
	}

	return router
}
