package scheduler

import (
	"fmt"
	"log"

	"listing-catalog/internal/cleanup"
	"listing-catalog/internal/config"
	"listing-catalog/internal/review"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the nightly catalog maintenance: a catalog-wide duplicate
// recheck followed by the retention purge. The dedupe core never schedules
// itself; this is an external trigger like the API.
type Scheduler struct {
	cron      *cron.Cron
	workflow  *review.Workflow
	cleanup   *cleanup.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(workflow *review.Workflow, cleanupSvc *cleanup.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		workflow: workflow,
		cleanup:  cleanupSvc,
		config:   cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Maintenance.DailyRunEnabled {
		log.Println("Scheduler: Daily maintenance is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.Maintenance.DailyRunTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: Starting daily maintenance job...")
		if err := s.runMaintenance(); err != nil {
			log.Printf("Scheduler: Daily maintenance failed: %v", err)
		} else {
			log.Println("Scheduler: Daily maintenance completed successfully")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with daily run at %s (cron: %s)", s.config.Maintenance.DailyRunTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// runMaintenance executes the daily maintenance routine
func (s *Scheduler) runMaintenance() error {
	recheck, err := s.workflow.BulkRecheck()
	if err != nil {
		return fmt.Errorf("bulk recheck: %w", err)
	}
	log.Printf("Scheduler: Bulk recheck done. Checked: %d, Demoted: %d, Errors: %d",
		recheck.Checked, recheck.DemotedCount, recheck.ErrorCount)

	cleanupCfg := cleanup.Config{
		RetentionDays: s.config.Maintenance.RetentionDays,
		MaxPurgeCount: s.config.Maintenance.MaxPurgeCount,
	}
	result, err := s.cleanup.Run(cleanupCfg)
	if err != nil {
		return fmt.Errorf("retention purge: %w", err)
	}
	log.Printf("Scheduler: Retention purge done. Purged: %d/%d, Errors: %d",
		result.PurgedCount, result.TargetCount, result.ErrorCount)

	return nil
}

// RunNow immediately executes the maintenance job (for manual trigger)
func (s *Scheduler) RunNow() error {
	log.Println("Scheduler: Manual trigger - starting maintenance job...")
	return s.runMaintenance()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	log.Printf("Scheduler: Failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
