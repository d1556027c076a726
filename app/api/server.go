package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
		SkipPaths: []string{"/health"},
	}))

	r.Use(gin.Recovery())

	// The news frontend is served from another origin.
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	api := r.Group("/api")
	{
		api.GET("/feed", handler.GetFeed)
		api.GET("/status", handler.GetStatus)
		api.GET("/analyze-image", handler.AnalyzeImage)
		api.GET("/sources", handler.ListSources)
		api.GET("/source", handler.GetSource)
	}

	r.GET("/feeds/:section", handler.GetSectionFeed)
	r.GET("/health", handler.GetHealth)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "RSS Pulse",
			"version":     handler.version,
			"description": "News aggregator sampling RSS/Atom sources into ranked, deduplicated sections",
			"endpoints": map[string]string{
				"feed":          "/api/feed",
				"status":        "/api/status",
				"analyze_image": "/api/analyze-image?url=<image>",
				"sources":       "/api/sources",
				"source":        "/api/source?url=<feed>",
				"rss":           "/feeds/<section>",
				"health":        "/health",
			},
			"features": gin.H{
				"image_analysis": handler.inspector != nil,
				"source_stats":   handler.stats != nil,
				"redis":          handler.health != nil,
			},
		})
	})

	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	slog.Debug("Routes registered", "image_analysis", handler.inspector != nil, "source_stats", handler.stats != nil)
}
