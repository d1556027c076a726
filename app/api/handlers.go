package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/rss-pulse/app/feed"
	"github.com/lysyi3m/rss-pulse/app/forensics"
)

const recentCycles = 10

func NewHandler(cache FeedCache, baseURL, version string) *Handler {
	return &Handler{
		cache:     cache,
		generator: feed.NewGenerator(),
		baseURL:   strings.TrimRight(baseURL, "/"),
		version:   version,
	}
}

func (h *Handler) WithInspector(inspector ImageInspector) *Handler {
	h.inspector = inspector
	return h
}

func (h *Handler) WithStats(stats StatsReader) *Handler {
	h.stats = stats
	return h
}

func (h *Handler) WithHealth(health HealthReporter) *Handler {
	h.health = health
	return h
}

func (h *Handler) GetFeed(c *gin.Context) {
	result, err := h.cache.Get(c.Request.Context())
	if err != nil {
		slog.Error("Aggregation failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"source":         "live-sampled",
		"cycle_id":       result.CycleID,
		"generated_at":   result.GeneratedAt.In(time.Local).Format(time.RFC3339),
		"count":          result.Count,
		"failed_sources": result.FailedSources(),
		"sections":       result.Sections,
		"section_order":  result.SectionOrder,
		"data":           result.Top,
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	status := gin.H{"status": "online", "cache_age": nil}

	if age, ok := h.cache.Age(); ok {
		status["cache_age"] = age.Seconds()
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) AnalyzeImage(c *gin.Context) {
	if h.inspector == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Image analysis is not configured"})
		return
	}

	imageURL := strings.TrimSpace(c.Query("url"))
	if imageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Missing url parameter"})
		return
	}

	verdict, err := h.inspector.Run(c.Request.Context(), imageURL)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, forensics.ErrInvalidURL):
			status = http.StatusBadRequest
		case errors.Is(err, forensics.ErrThrottled):
			status = http.StatusTooManyRequests
		}

		slog.Warn("Image analysis failed", "url", imageURL, "status", status, "error", err)
		c.JSON(status, gin.H{"status": "error", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, verdict)
}

func (h *Handler) ListSources(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source statistics are disabled"})
		return
	}

	ctx := c.Request.Context()

	stats, err := h.stats.GetSourceStats(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_source_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	cycles, err := h.stats.GetRecentCycles(ctx, recentCycles)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_cycles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	sources := make([]SourceHealth, 0, len(stats))
	for _, s := range stats {
		sources = append(sources, SourceHealth{SourceStats: s, SuccessRate: s.SuccessRate()})
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"total":   len(sources),
		"cycles":  cycles,
	})
}

func (h *Handler) GetSource(c *gin.Context) {
	if h.stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source statistics are disabled"})
		return
	}

	sourceURL := strings.TrimSpace(c.Query("url"))
	if sourceURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	stats, err := h.stats.GetSource(c.Request.Context(), sourceURL)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "url", sourceURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	c.JSON(http.StatusOK, SourceHealth{SourceStats: *stats, SuccessRate: stats.SuccessRate()})
}

func (h *Handler) GetSectionFeed(c *gin.Context) {
	section := c.Param("section")
	if section == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	result, err := h.cache.Get(c.Request.Context())
	if err != nil {
		slog.Error("Aggregation failed", "section", section, "error", err)
		c.Status(http.StatusServiceUnavailable)
		return
	}

	items, ok := result.Section(section)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	channel := feed.Channel{
		Title:     "RSS Pulse: " + section,
		Link:      h.baseURL + "/",
		Generator: "RSS Pulse " + h.version,
		BuiltAt:   result.GeneratedAt.In(time.Local),
	}
	if h.baseURL != "" {
		channel.SelfLink = h.baseURL + "/feeds/" + section
	}

	rss, err := h.generator.Run(channel, items)
	if err != nil {
		slog.Error("RSS generation error", "section", section, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	c.Header("X-Feed-Name", section)
	c.Header("X-Last-Updated", result.GeneratedAt.In(time.Local).Format(time.RFC3339))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]any{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
		"cache_age": nil,
	}

	if age, ok := h.cache.Age(); ok {
		health["cache_age"] = age.Seconds()
	}

	if h.health != nil {
		health["redis"] = h.health.Health(c.Request.Context())
	}

	c.JSON(http.StatusOK, health)
}
