package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"relocation-advisor/internal/cleanup"
	"relocation-advisor/internal/database"
	"relocation-advisor/internal/models"
	"relocation-advisor/internal/ratelimit"
	"relocation-advisor/internal/webimage"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db             *database.GormDB
	cleanupService *cleanup.Service
	apiLimiter     *ratelimit.RateLimiter
	webFetcher     *webimage.Fetcher
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *database.GormDB, cleanupSvc *cleanup.Service, apiLimiter *ratelimit.RateLimiter, webFetcher *webimage.Fetcher) *AdminHandler {
	return &AdminHandler{
		db:             db,
		cleanupService: cleanupSvc,
		apiLimiter:     apiLimiter,
		webFetcher:     webFetcher,
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	journeyStats, err := h.db.JourneyStats(c.Request.Context())
	if err != nil {
		log.Printf("[admin] Failed to get journey stats: %v", err)
	} else {
		stats["journeys"] = journeyStats
	}

	queueStats, err := h.db.QueueStats(c.Request.Context())
	if err != nil {
		log.Printf("[admin] Failed to get queue stats: %v", err)
	} else {
		stats["enrichment_queue"] = queueStats
	}

	var recommendationCount int64
	h.db.DB().Model(&models.Recommendation{}).Count(&recommendationCount)
	var last24hCount int64
	h.db.DB().Model(&models.Recommendation{}).
		Where("created_at >= ?", time.Now().AddDate(0, 0, -1)).
		Count(&last24hCount)
	stats["recommendations"] = map[string]interface{}{
		"total":    recommendationCount,
		"last_24h": last24hCount,
	}

	var recentChanges int64
	h.db.DB().Model(&models.ProfileChange{}).
		Where("detected_at >= ?", time.Now().AddDate(0, 0, -7)).
		Count(&recentChanges)
	stats["profile_changes"] = map[string]interface{}{
		"last_7_days": recentChanges,
	}

	if h.webFetcher != nil {
		open, failures, total := h.webFetcher.Status()
		stats["web_fetcher"] = map[string]interface{}{
			"circuit_open": open,
			"failures":     failures,
			"requests":     total,
		}
	}

	c.JSON(http.StatusOK, stats)
}

// GetQueue returns the enrichment queue's current shape.
func (h *AdminHandler) GetQueue(c *gin.Context) {
	stats, err := h.db.QueueStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	var jobs []models.EnrichmentJob
	if err := h.db.DB().WithContext(c.Request.Context()).
		Order("created_at DESC").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":       stats,
		"recent_jobs": jobs,
	})
}

// RunMaintenance triggers the maintenance pass immediately.
func (h *AdminHandler) RunMaintenance(c *gin.Context) {
	result := h.cleanupService.Run(c.Request.Context(), cleanup.DefaultConfig())
	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}

// GetMaintenanceLogs returns recent maintenance runs.
func (h *AdminHandler) GetMaintenanceLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.db.ListMaintenanceLogs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// GetRateLimitStats returns API rate limiter counters.
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	if h.apiLimiter == nil {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}
	c.JSON(http.StatusOK, h.apiLimiter.GetStats())
}
