package repository

import (
	"errors"
	"time"

	"listing-catalog/internal/models"
)

// ErrNotFound is returned when a listing id does not resolve to an existing
// record. Callers must treat it as terminal, never retried.
var ErrNotFound = errors.New("listing not found")

// PropertyRepository abstracts listing persistence so the dedupe and lifecycle
// services can run against MySQL, Postgres, or an in-memory store in tests.
//
// "Active" in the query methods below means part of the matching pool:
// archived = false AND deleted = false.
type PropertyRepository interface {
	// FindByID returns the listing regardless of flags, or ErrNotFound.
	FindByID(id string) (*models.Listing, error)

	// FindActiveByAddressExact returns matching-pool listings whose address
	// equals the given address case-insensitively (both sides trimmed),
	// excluding excludeID. Blank address handling belongs to the caller.
	FindActiveByAddressExact(address, excludeID string) ([]models.Listing, error)

	// FindActiveByAddressTokens returns matching-pool listings whose address
	// contains every token case-insensitively, excluding excludeID.
	FindActiveByAddressTokens(tokens []string, excludeID string) ([]models.Listing, error)

	// FindAllActive returns matching-pool listings whose status is not
	// pending, oldest first. Used by bulk recheck.
	FindAllActive() ([]models.Listing, error)

	// FindPending returns non-deleted listings in pending status, newest first.
	FindPending() ([]models.Listing, error)

	// FindDeletedBefore returns soft-deleted listings whose deleted_at is
	// older than cutoff. Used by the retention cleanup.
	FindDeletedBefore(cutoff time.Time) ([]models.Listing, error)

	// Save upserts the listing by id.
	Save(l *models.Listing) error

	// Delete permanently removes the listing. Deleting a missing id returns
	// ErrNotFound so races between two reviewers fail cleanly.
	Delete(id string) error

	// RecordPurge appends a purge audit entry.
	RecordPurge(entry *models.PurgeLog) error

	// RecentPurgeLogs returns the most recent purge entries, newest first.
	RecentPurgeLogs(limit int) ([]models.PurgeLog, error)
}
