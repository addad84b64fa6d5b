package cleanup

import (
	"fmt"
	"log"
	"time"

	"listing-catalog/internal/lifecycle"
	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"
)

// Service purges soft-deleted listings once they age past the retention
// window. Purges go through the lifecycle service so the audit log and
// search index stay consistent with reviewer-initiated removals.
type Service struct {
	repo      repository.PropertyRepository
	lifecycle *lifecycle.Service
}

// NewService creates a new cleanup service
func NewService(repo repository.PropertyRepository, svc *lifecycle.Service) *Service {
	return &Service{repo: repo, lifecycle: svc}
}

// Config holds configuration for cleanup operations
type Config struct {
	RetentionDays int  // Days to keep soft-deleted listings before purge
	MaxPurgeCount int  // Maximum number of listings to purge in one run (safety limit)
	DryRun        bool // If true, only log what would be purged
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		RetentionDays: 30,
		MaxPurgeCount: 1000,
		DryRun:        false,
	}
}

// Result holds the result of a cleanup operation
type Result struct {
	TargetCount    int       `json:"target_count"`
	PurgedCount    int       `json:"purged_count"`
	ErrorCount     int       `json:"error_count"`
	DryRun         bool      `json:"dry_run"`
	ExecutedAt     time.Time `json:"executed_at"`
	PurgedListings []string  `json:"purged_listings"`
	Errors         []string  `json:"errors,omitempty"`
}

// FindExpired returns soft-deleted listings whose deleted_at is older than
// retentionDays.
func (s *Service) FindExpired(retentionDays int) ([]models.Listing, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	listings, err := s.repo.FindDeletedBefore(cutoff)
	if err != nil {
		return nil, fmt.Errorf("find expired listings: %w", err)
	}

	log.Printf("Found %d listings soft-deleted before %s", len(listings), cutoff.Format("2006-01-02"))
	return listings, nil
}

// Run purges expired soft-deleted listings
func (s *Service) Run(config Config) (*Result, error) {
	result := &Result{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now(),
	}

	expired, err := s.FindExpired(config.RetentionDays)
	if err != nil {
		return nil, err
	}

	result.TargetCount = len(expired)
	if result.TargetCount == 0 {
		log.Println("No expired listings found for purge")
		return result, nil
	}

	// Safety check: abort if too many listings would be purged
	if result.TargetCount > config.MaxPurgeCount {
		return nil, fmt.Errorf("safety check failed: %d listings exceed max purge limit of %d",
			result.TargetCount, config.MaxPurgeCount)
	}

	log.Printf("Starting cleanup: %d listings to purge (retention: %d days, dry-run: %v)",
		result.TargetCount, config.RetentionDays, config.DryRun)

	for _, l := range expired {
		if config.DryRun {
			log.Printf("[DRY-RUN] Would purge listing %s (Title: %s, DeletedAt: %s)",
				l.ID, l.Title, l.DeletedAt.Format("2006-01-02"))
			result.PurgedListings = append(result.PurgedListings, l.ID)
			result.PurgedCount++
			continue
		}

		if err := s.lifecycle.PermanentlyDelete(l.ID, models.PurgeReasonRetentionExpired); err != nil {
			errMsg := fmt.Sprintf("Failed to purge listing %s: %v", l.ID, err)
			log.Printf("ERROR: %s", errMsg)
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		log.Printf("Purged listing %s (Title: %s)", l.ID, l.Title)
		result.PurgedListings = append(result.PurgedListings, l.ID)
		result.PurgedCount++
	}

	log.Printf("Cleanup completed: %d/%d purged, %d errors (dry-run: %v)",
		result.PurgedCount, result.TargetCount, result.ErrorCount, config.DryRun)

	return result, nil
}
