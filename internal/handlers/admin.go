package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"listing-catalog/internal/cleanup"
	"listing-catalog/internal/models"
	"listing-catalog/internal/ratelimit"
	"listing-catalog/internal/repository"
	"listing-catalog/internal/scheduler"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	repo        repository.PropertyRepository
	cleanupSvc  *cleanup.Service
	scheduler   *scheduler.Scheduler
	rateLimiter *ratelimit.RateLimiter
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(repo repository.PropertyRepository, cleanupSvc *cleanup.Service, sched *scheduler.Scheduler, limiter *ratelimit.RateLimiter) *AdminHandler {
	return &AdminHandler{
		repo:        repo,
		cleanupSvc:  cleanupSvc,
		scheduler:   sched,
		rateLimiter: limiter,
	}
}

// GetStats returns catalog statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	active, err := h.repo.FindAllActive()
	if err != nil {
		respondError(c, err)
		return
	}

	var soldCount int
	for _, l := range active {
		if l.Status == models.ListingStatusSold {
			soldCount++
		}
	}

	pending, err := h.repo.FindPending()
	if err != nil {
		respondError(c, err)
		return
	}

	deleted, err := h.repo.FindDeletedBefore(time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	stats["listings"] = map[string]interface{}{
		"active":         len(active) - soldCount,
		"sold":           soldCount,
		"pending_review": len(pending),
		"soft_deleted":   len(deleted),
	}

	purges, err := h.repo.RecentPurgeLogs(100)
	if err != nil {
		log.Printf("Failed to load purge logs: %v", err)
	} else {
		byReason := make(map[string]int)
		for _, p := range purges {
			byReason[p.Reason]++
		}
		stats["recent_purges"] = map[string]interface{}{
			"total":     len(purges),
			"by_reason": byReason,
		}
	}

	c.JSON(http.StatusOK, stats)
}

// RunCleanup executes the retention purge of old soft-deleted listings
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionDays int  `json:"retention_days"` // Days to keep (default: 30)
		MaxPurgeCount int  `json:"max_purge_count"`
		DryRun        bool `json:"dry_run"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_input", "message": err.Error()})
		return
	}

	config := cleanup.DefaultConfig()
	if req.RetentionDays > 0 {
		config.RetentionDays = req.RetentionDays
	}
	if req.MaxPurgeCount > 0 {
		config.MaxPurgeCount = req.MaxPurgeCount
	}
	config.DryRun = req.DryRun

	log.Printf("Admin: Running cleanup (retention: %d days, max: %d, dry-run: %v)",
		config.RetentionDays, config.MaxPurgeCount, config.DryRun)

	result, err := h.cleanupSvc.Run(config)
	if err != nil {
		log.Printf("Admin: Cleanup failed: %v", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPurgeLogs returns recent purge log entries
func (h *AdminHandler) GetPurgeLogs(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, _ := strconv.Atoi(limitStr)

	logs, err := h.repo.RecentPurgeLogs(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// TriggerMaintenance manually starts the maintenance job
func (h *AdminHandler) TriggerMaintenance(c *gin.Context) {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal", "message": "scheduler not available"})
		return
	}

	log.Println("Admin: Manual maintenance trigger requested")

	// Run in goroutine to avoid blocking
	go func() {
		if err := h.scheduler.RunNow(); err != nil {
			log.Printf("Admin: Manual maintenance failed: %v", err)
		} else {
			log.Println("Admin: Manual maintenance completed successfully")
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Maintenance job started",
		"status":  "running",
	})
}

// GetRateLimitStats returns current rate limiter statistics
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.rateLimiter.GetStats())
}
