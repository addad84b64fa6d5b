package review

import (
	"errors"
	"fmt"
	"log"

	"listing-catalog/internal/lifecycle"
	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"
)

// Workflow orchestrates the human-facing review operations over the catalog.
type Workflow struct {
	repo      repository.PropertyRepository
	lifecycle *lifecycle.Service
}

// NewWorkflow creates a review workflow.
func NewWorkflow(repo repository.PropertyRepository, svc *lifecycle.Service) *Workflow {
	return &Workflow{
		repo:      repo,
		lifecycle: svc,
	}
}

// ComparePair holds a duplicate and its canonical for side-by-side display.
type ComparePair struct {
	Duplicate *models.Listing `json:"duplicate"`
	Canonical *models.Listing `json:"canonical"`
}

// BulkRecheckResult aggregates the outcome of a catalog-wide recheck.
type BulkRecheckResult struct {
	Checked      int `json:"checked"`
	DemotedCount int `json:"demoted_count"`
	ErrorCount   int `json:"error_count"`
}

// ListPendingReview returns all non-deleted listings awaiting a reviewer
// decision, newest first.
func (w *Workflow) ListPendingReview() ([]models.Listing, error) {
	return w.repo.FindPending()
}

// BulkRecheck re-runs duplicate matching over every non-archived, non-deleted
// active/sold listing and counts the newly demoted ones. Each listing's
// recheck is independent; a failure on one record is logged and does not
// abort the batch. Running it twice on an unchanged catalog demotes nothing
// the second time.
func (w *Workflow) BulkRecheck() (*BulkRecheckResult, error) {
	listings, err := w.repo.FindAllActive()
	if err != nil {
		return nil, fmt.Errorf("load active listings: %w", err)
	}

	result := &BulkRecheckResult{}
	for _, l := range listings {
		result.Checked++

		updated, err := w.lifecycle.Recheck(l.ID)
		if err != nil {
			// A listing removed mid-scan by a concurrent request is not an
			// error worth reporting; anything else is counted and skipped.
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			log.Printf("Bulk recheck: listing %s failed: %v", l.ID, err)
			result.ErrorCount++
			continue
		}

		if updated.Status == models.ListingStatusPending && l.Status != models.ListingStatusPending {
			result.DemotedCount++
		}
	}

	log.Printf("Bulk recheck completed: checked=%d demoted=%d errors=%d",
		result.Checked, result.DemotedCount, result.ErrorCount)
	return result, nil
}

// RecheckOne re-runs duplicate matching for a single listing.
func (w *Workflow) RecheckOne(id string) (*models.Listing, error) {
	return w.lifecycle.Recheck(id)
}

// Compare resolves a pending duplicate and its canonical for side-by-side
// display. A listing without a duplicate link is a Conflict; a link whose
// target is gone or soft-deleted out-of-band resolves to NotFound.
func (w *Workflow) Compare(duplicateID string) (*ComparePair, error) {
	if duplicateID == "" {
		return nil, fmt.Errorf("%w: missing listing id", lifecycle.ErrInvalidInput)
	}

	dup, err := w.repo.FindByID(duplicateID)
	if err != nil {
		return nil, err
	}
	if dup.DuplicateOf == nil {
		return nil, fmt.Errorf("%w: listing %s is not pending review", lifecycle.ErrConflict, duplicateID)
	}

	canonical, err := w.repo.FindByID(*dup.DuplicateOf)
	if err != nil {
		return nil, err
	}
	if canonical.Deleted {
		return nil, fmt.Errorf("canonical %s for listing %s: %w", canonical.ID, duplicateID, repository.ErrNotFound)
	}

	return &ComparePair{Duplicate: dup, Canonical: canonical}, nil
}

// Approve applies the reviewer's merge decision.
func (w *Workflow) Approve(duplicateID, canonicalID string) (*models.Listing, error) {
	return w.lifecycle.Approve(duplicateID, canonicalID)
}

// Reject discards the reviewed duplicate.
func (w *Workflow) Reject(duplicateID string) error {
	return w.lifecycle.Reject(duplicateID)
}

// Purge permanently removes a listing. Only soft-deleted listings may be
// purged; anything else is a Conflict.
func (w *Workflow) Purge(id string) error {
	l, err := w.repo.FindByID(id)
	if err != nil {
		return err
	}
	if !l.Deleted {
		return fmt.Errorf("%w: listing %s is not deleted", lifecycle.ErrConflict, id)
	}
	return w.lifecycle.PermanentlyDelete(id, models.PurgeReasonManual)
}
