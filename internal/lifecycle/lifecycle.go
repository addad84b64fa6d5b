package lifecycle

import (
	"errors"
	"fmt"
	"log"

	"listing-catalog/internal/dedupe"
	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"
)

var (
	// ErrConflict means an operation's precondition no longer holds, e.g.
	// approving a listing that is not pending against the given canonical.
	ErrConflict = errors.New("operation precondition violated")

	// ErrInvalidInput means the request was malformed and was rejected
	// before any repository call.
	ErrInvalidInput = errors.New("invalid input")
)

// Indexer mirrors lifecycle mutations into the search index. Implementations
// must tolerate being called for listings that were never indexed.
type Indexer interface {
	IndexListing(l *models.Listing) error
	RemoveListing(id string) error
}

// Service governs the states a listing can occupy and the legal transitions
// between them, including the duplicate-linkage side effects. It holds no
// state of its own; every operation re-reads the listings it touches so
// concurrent mutations surface as NotFound or Conflict instead of corrupting
// a cluster.
type Service struct {
	repo    repository.PropertyRepository
	matcher *dedupe.Matcher
	indexer Indexer
}

// NewService creates a lifecycle service. indexer may be nil, in which case
// search sync is skipped.
func NewService(repo repository.PropertyRepository, matcher *dedupe.Matcher, indexer Indexer) *Service {
	return &Service{
		repo:    repo,
		matcher: matcher,
		indexer: indexer,
	}
}

// Recheck re-runs exact duplicate matching for one listing and applies the
// resulting transition. Idempotent: a second run on the same catalog state
// changes nothing.
//
// Archived, soft-deleted and blank-address listings are left untouched. If
// the listing is the canonical (oldest) member of its cluster, or its cluster
// has emptied, a stale pending/duplicate_of state is cleared. Otherwise the
// listing is demoted to pending pointing at the canonical record.
func (s *Service) Recheck(id string) (*models.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing listing id", ErrInvalidInput)
	}

	l, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if !l.InMatchingPool() || dedupe.ExactKey(l.Address) == "" {
		return l, nil
	}

	matches, err := s.matcher.FindExact(l)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		// Cluster of one. Clear a stale demotion left over from a cluster
		// that has since dissolved.
		if l.Status == models.ListingStatusPending || l.DuplicateOf != nil {
			return l, s.promote(l)
		}
		return l, nil
	}

	cluster := append(matches, *l)
	canonical := dedupe.SelectCanonical(cluster)

	if canonical.ID == l.ID {
		if l.Status == models.ListingStatusPending || l.DuplicateOf != nil {
			return l, s.promote(l)
		}
		return l, nil
	}

	// Already demoted against the same canonical: nothing to do.
	if l.Status == models.ListingStatusPending && l.DuplicateOf != nil && *l.DuplicateOf == canonical.ID {
		return l, nil
	}

	l.Status = models.ListingStatusPending
	canonicalID := canonical.ID
	l.DuplicateOf = &canonicalID
	if err := s.repo.Save(l); err != nil {
		return nil, fmt.Errorf("demote listing %s: %w", l.ID, err)
	}
	s.syncIndex(l)
	return l, nil
}

// promote returns a listing to active status and clears its duplicate link.
func (s *Service) promote(l *models.Listing) error {
	l.Status = models.ListingStatusActive
	l.DuplicateOf = nil
	if err := s.repo.Save(l); err != nil {
		return fmt.Errorf("promote listing %s: %w", l.ID, err)
	}
	s.syncIndex(l)
	return nil
}

// Approve merges a reviewed duplicate into its canonical record: the
// canonical absorbs the duplicate's content fields, then the duplicate is
// permanently removed. The canonical id is preserved so external references
// stay valid. The duplicate must still be pending against the given
// canonical, otherwise ErrConflict.
func (s *Service) Approve(duplicateID, canonicalID string) (*models.Listing, error) {
	if duplicateID == "" || canonicalID == "" {
		return nil, fmt.Errorf("%w: missing listing id", ErrInvalidInput)
	}
	if duplicateID == canonicalID {
		return nil, fmt.Errorf("%w: duplicate and canonical are the same listing", ErrInvalidInput)
	}

	dup, err := s.repo.FindByID(duplicateID)
	if err != nil {
		return nil, err
	}
	canonical, err := s.repo.FindByID(canonicalID)
	if err != nil {
		return nil, err
	}

	if dup.DuplicateOf == nil || *dup.DuplicateOf != canonical.ID {
		return nil, fmt.Errorf("%w: listing %s is not pending against %s", ErrConflict, duplicateID, canonicalID)
	}

	canonical.CopyContentFrom(dup)
	if err := s.repo.Save(canonical); err != nil {
		return nil, fmt.Errorf("merge into canonical %s: %w", canonicalID, err)
	}

	if err := s.removeListing(dup, models.PurgeReasonDuplicateApproved); err != nil {
		return nil, err
	}

	s.syncIndex(canonical)
	log.Printf("Approved duplicate %s into canonical %s", duplicateID, canonicalID)
	return canonical, nil
}

// Reject permanently removes a reviewed duplicate without touching its
// canonical. The listing must be pending, otherwise ErrConflict.
func (s *Service) Reject(duplicateID string) error {
	if duplicateID == "" {
		return fmt.Errorf("%w: missing listing id", ErrInvalidInput)
	}

	dup, err := s.repo.FindByID(duplicateID)
	if err != nil {
		return err
	}
	if dup.DuplicateOf == nil {
		return fmt.Errorf("%w: listing %s is not pending review", ErrConflict, duplicateID)
	}

	if err := s.removeListing(dup, models.PurgeReasonDuplicateRejected); err != nil {
		return err
	}

	log.Printf("Rejected duplicate %s", duplicateID)
	return nil
}

// Archive flags the listing as archived, removing it from the matching pool.
// Status and duplicate_of are untouched. Idempotent.
func (s *Service) Archive(id string) (*models.Listing, error) {
	return s.setArchived(id, true)
}

// Unarchive clears the archived flag. Idempotent.
func (s *Service) Unarchive(id string) (*models.Listing, error) {
	return s.setArchived(id, false)
}

func (s *Service) setArchived(id string, archived bool) (*models.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing listing id", ErrInvalidInput)
	}

	l, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if l.Archived == archived {
		return l, nil
	}

	l.Archived = archived
	if err := s.repo.Save(l); err != nil {
		return nil, fmt.Errorf("set archived=%v on listing %s: %w", archived, id, err)
	}
	s.syncIndex(l)
	return l, nil
}

// SoftDelete flags the listing as deleted. It leaves matching and default
// catalog views but remains retrievable for restore. Idempotent.
func (s *Service) SoftDelete(id string) (*models.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing listing id", ErrInvalidInput)
	}

	l, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if l.Deleted {
		return l, nil
	}

	l.MarkDeleted()
	if err := s.repo.Save(l); err != nil {
		return nil, fmt.Errorf("soft-delete listing %s: %w", id, err)
	}
	s.dropFromIndex(id)
	return l, nil
}

// Restore clears the soft-delete flag and re-runs matching: the cluster may
// have changed while the listing was out of the pool.
func (s *Service) Restore(id string) (*models.Listing, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: missing listing id", ErrInvalidInput)
	}

	l, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}

	if l.Deleted {
		l.MarkRestored()
		if err := s.repo.Save(l); err != nil {
			return nil, fmt.Errorf("restore listing %s: %w", id, err)
		}
		s.syncIndex(l)
	}

	return s.Recheck(id)
}

// PermanentlyDelete irreversibly removes the listing and records the purge.
// The deleted==true guard is enforced by the review workflow so this stays a
// plain transition.
func (s *Service) PermanentlyDelete(id, reason string) error {
	if id == "" {
		return fmt.Errorf("%w: missing listing id", ErrInvalidInput)
	}

	l, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	return s.removeListing(l, reason)
}

// removeListing hard-deletes a listing, writes the purge audit row and drops
// the search document.
func (s *Service) removeListing(l *models.Listing, reason string) error {
	if err := s.repo.Delete(l.ID); err != nil {
		return err
	}

	entry := &models.PurgeLog{
		ListingID: l.ID,
		OwnerID:   l.OwnerID,
		Title:     l.Title,
		Address:   l.Address,
		Reason:    reason,
	}
	if err := s.repo.RecordPurge(entry); err != nil {
		// The listing is already gone; losing the audit row is not worth
		// failing the operation.
		log.Printf("Warning: failed to record purge of listing %s: %v", l.ID, err)
	}

	s.dropFromIndex(l.ID)
	return nil
}

func (s *Service) syncIndex(l *models.Listing) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexListing(l); err != nil {
		log.Printf("Warning: failed to index listing %s: %v", l.ID, err)
	}
}

func (s *Service) dropFromIndex(id string) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.RemoveListing(id); err != nil {
		log.Printf("Warning: failed to remove listing %s from index: %v", id, err)
	}
}
