package lifecycle

import (
	"testing"
	"time"

	"listing-catalog/internal/dedupe"
	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	return NewService(repo, dedupe.NewMatcher(repo), nil), repo
}

func seed(t *testing.T, repo *repository.MemoryRepository, id, address string, createdAt time.Time, mutate ...func(*models.Listing)) *models.Listing {
	t.Helper()
	l := &models.Listing{
		ID:        id,
		OwnerID:   "owner-1",
		Title:     "Listing " + id,
		Address:   address,
		Status:    models.ListingStatusActive,
		CreatedAt: createdAt,
	}
	for _, m := range mutate {
		m(l)
	}
	require.NoError(t, repo.Save(l))
	return l
}

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRecheckDemotesNewerListing(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "123 Main St", baseTime)
	seed(t, repo, "newer", "123 MAIN ST", baseTime.Add(time.Hour))

	l, err := svc.Recheck("newer")
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusPending, l.Status)
	require.NotNil(t, l.DuplicateOf)
	assert.Equal(t, "older", *l.DuplicateOf)

	// The canonical is never demoted.
	older, err := repo.FindByID("older")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, older.Status)
	assert.Nil(t, older.DuplicateOf)
}

func TestRecheckIsIdempotent(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "123 Main St", baseTime)
	seed(t, repo, "newer", "123 Main St", baseTime.Add(time.Hour))

	first, err := svc.Recheck("newer")
	require.NoError(t, err)
	second, err := svc.Recheck("newer")
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, *first.DuplicateOf, *second.DuplicateOf)
	assert.NotEqual(t, second.ID, *second.DuplicateOf, "listing must never reference itself")
}

func TestRecheckCanonicalLeftUntouched(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "9 Oak Ave", baseTime)
	seed(t, repo, "newer", "9 Oak Ave", baseTime.Add(time.Hour))

	l, err := svc.Recheck("older")
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusActive, l.Status)
	assert.Nil(t, l.DuplicateOf)
}

func TestRecheckBlankAddressNeverTransitions(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "blank-a", "   ", baseTime)
	seed(t, repo, "blank-b", "", baseTime.Add(time.Hour))

	l, err := svc.Recheck("blank-b")
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusActive, l.Status)
	assert.Nil(t, l.DuplicateOf)
}

func TestRecheckClearsStaleDuplicateLink(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "5 Pine Ct", baseTime)
	seed(t, repo, "newer", "5 Pine Ct", baseTime.Add(time.Hour))

	_, err := svc.Recheck("newer")
	require.NoError(t, err)

	// The original disappears out-of-band; the survivor is now the oldest
	// member of its (one-element) cluster.
	require.NoError(t, repo.Delete("older"))

	l, err := svc.Recheck("newer")
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusActive, l.Status)
	assert.Nil(t, l.DuplicateOf)
}

func TestRecheckSkipsArchivedAndDeleted(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "8 Elm Row", baseTime)
	seed(t, repo, "archived", "8 Elm Row", baseTime.Add(time.Hour), func(l *models.Listing) { l.Archived = true })
	seed(t, repo, "deleted", "8 Elm Row", baseTime.Add(2*time.Hour), func(l *models.Listing) { l.MarkDeleted() })

	archived, err := svc.Recheck("archived")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, archived.Status)
	assert.Nil(t, archived.DuplicateOf)

	deleted, err := svc.Recheck("deleted")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, deleted.Status)
	assert.Nil(t, deleted.DuplicateOf)
}

func TestRecheckNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Recheck("missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApproveMergesAndRemovesDuplicate(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "canonical", "123 Main St", baseTime)
	price := 450000.0
	seed(t, repo, "dup", "123 Main St", baseTime.Add(time.Hour), func(l *models.Listing) {
		l.Title = "New Title"
		l.Price = &price
		l.ImageURLs = []string{"https://img.example/1.jpg"}
	})

	_, err := svc.Recheck("dup")
	require.NoError(t, err)

	merged, err := svc.Approve("dup", "canonical")
	require.NoError(t, err)

	// Canonical id is preserved and carries the duplicate's content.
	assert.Equal(t, "canonical", merged.ID)
	assert.Equal(t, "New Title", merged.Title)
	require.NotNil(t, merged.Price)
	assert.Equal(t, price, *merged.Price)
	assert.Equal(t, []string{"https://img.example/1.jpg"}, merged.ImageURLs)

	_, err = repo.FindByID("dup")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Purge audit row is written.
	logs, err := repo.RecentPurgeLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "dup", logs[0].ListingID)
	assert.Equal(t, models.PurgeReasonDuplicateApproved, logs[0].Reason)
}

func TestApproveMissingListings(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "canonical", "123 Main St", baseTime)

	_, err := svc.Approve("missing", "canonical")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Approve("canonical", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApproveRequiresPendingLink(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "canonical", "123 Main St", baseTime)
	seed(t, repo, "other", "456 Side St", baseTime.Add(time.Hour))

	// "other" was never demoted against "canonical".
	_, err := svc.Approve("other", "canonical")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApproveSelfMerge(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "one", "123 Main St", baseTime)

	_, err := svc.Approve("one", "one")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRejectLeavesCanonicalUntouched(t *testing.T) {
	svc, repo := newTestService()

	canonical := seed(t, repo, "canonical", "123 Main St", baseTime)
	seed(t, repo, "dup", "123 Main St", baseTime.Add(time.Hour))

	_, err := svc.Recheck("dup")
	require.NoError(t, err)

	require.NoError(t, svc.Reject("dup"))

	_, err = repo.FindByID("dup")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	after, err := repo.FindByID("canonical")
	require.NoError(t, err)
	assert.Equal(t, canonical.Title, after.Title)
	assert.Equal(t, models.ListingStatusActive, after.Status)

	logs, err := repo.RecentPurgeLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.PurgeReasonDuplicateRejected, logs[0].Reason)
}

func TestRejectRequiresPendingListing(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "solo", "123 Main St", baseTime)

	err := svc.Reject("solo")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestArchiveDoesNotTouchStatusOrLink(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "123 Main St", baseTime)
	seed(t, repo, "newer", "123 Main St", baseTime.Add(time.Hour))

	_, err := svc.Recheck("newer")
	require.NoError(t, err)

	archived, err := svc.Archive("newer")
	require.NoError(t, err)
	assert.True(t, archived.Archived)
	assert.Equal(t, models.ListingStatusPending, archived.Status)
	require.NotNil(t, archived.DuplicateOf)

	restored, err := svc.Unarchive("newer")
	require.NoError(t, err)
	assert.False(t, restored.Archived)
}

func TestSoftDeleteRemovesFromMatchingPool(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "123 Main St", baseTime)
	seed(t, repo, "newer", "123 Main St", baseTime.Add(time.Hour))

	_, err := svc.SoftDelete("older")
	require.NoError(t, err)

	// With the older listing gone, the newer one is canonical.
	l, err := svc.Recheck("newer")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, l.Status)
	assert.Nil(t, l.DuplicateOf)
}

func TestRestoreRechecksCluster(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "123 Main St", baseTime, func(l *models.Listing) { l.MarkDeleted() })
	seed(t, repo, "newer", "123 Main St", baseTime.Add(time.Hour))

	// The older listing was soft-deleted, so the newer one is canonical.
	// Restoring the older one makes it the oldest cluster member again: it
	// comes back active, untouched by matching, since the cluster's newer
	// member is the one that should be demoted on its next recheck.
	l, err := svc.Restore("older")
	require.NoError(t, err)
	assert.False(t, l.Deleted)
	assert.Equal(t, models.ListingStatusActive, l.Status)

	demoted, err := svc.Recheck("newer")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusPending, demoted.Status)
	require.NotNil(t, demoted.DuplicateOf)
	assert.Equal(t, "older", *demoted.DuplicateOf)
}

func TestRestoredDuplicateIsDemotedImmediately(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "older", "123 Main St", baseTime)
	seed(t, repo, "newer", "123 Main St", baseTime.Add(time.Hour), func(l *models.Listing) { l.MarkDeleted() })

	l, err := svc.Restore("newer")
	require.NoError(t, err)

	assert.Equal(t, models.ListingStatusPending, l.Status)
	require.NotNil(t, l.DuplicateOf)
	assert.Equal(t, "older", *l.DuplicateOf)
}

func TestPermanentlyDeleteWritesAuditRow(t *testing.T) {
	svc, repo := newTestService()

	seed(t, repo, "gone", "123 Main St", baseTime, func(l *models.Listing) { l.MarkDeleted() })

	require.NoError(t, svc.PermanentlyDelete("gone", models.PurgeReasonManual))

	_, err := repo.FindByID("gone")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	logs, err := repo.RecentPurgeLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.PurgeReasonManual, logs[0].Reason)
}
