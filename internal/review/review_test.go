package review

import (
	"testing"
	"time"

	"listing-catalog/internal/dedupe"
	"listing-catalog/internal/lifecycle"
	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestWorkflow() (*Workflow, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	svc := lifecycle.NewService(repo, dedupe.NewMatcher(repo), nil)
	return NewWorkflow(repo, svc), repo
}

func seed(t *testing.T, repo *repository.MemoryRepository, id, address string, createdAt time.Time, mutate ...func(*models.Listing)) {
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
}

func TestBulkRecheckDemotesNewerClusterMembers(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "a-oldest", "123 Main St", baseTime)
	seed(t, repo, "a-mid", "123 MAIN ST", baseTime.Add(time.Hour))
	seed(t, repo, "a-newest", "  123 main st ", baseTime.Add(2*time.Hour))
	seed(t, repo, "b-solo", "9 Oak Ave", baseTime)
	seed(t, repo, "c-blank", "", baseTime)

	result, err := workflow.BulkRecheck()
	require.NoError(t, err)

	assert.Equal(t, 5, result.Checked)
	assert.Equal(t, 2, result.DemotedCount)
	assert.Equal(t, 0, result.ErrorCount)

	// Cluster exclusivity: exactly one non-pending member per cluster.
	oldest, err := repo.FindByID("a-oldest")
	require.NoError(t, err)
	assert.Equal(t, models.ListingStatusActive, oldest.Status)

	for _, id := range []string{"a-mid", "a-newest"} {
		l, err := repo.FindByID(id)
		require.NoError(t, err)
		assert.Equal(t, models.ListingStatusPending, l.Status, id)
		require.NotNil(t, l.DuplicateOf, id)
		assert.Equal(t, "a-oldest", *l.DuplicateOf, id)
	}
}

func TestBulkRecheckSecondRunDemotesNothing(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "older", "123 Main St", baseTime)
	seed(t, repo, "newer", "123 Main St", baseTime.Add(time.Hour))

	first, err := workflow.BulkRecheck()
	require.NoError(t, err)
	assert.Equal(t, 1, first.DemotedCount)

	second, err := workflow.BulkRecheck()
	require.NoError(t, err)
	assert.Equal(t, 0, second.DemotedCount)
}

func TestListPendingReviewNewestFirst(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "older", "123 Main St", baseTime)
	seed(t, repo, "mid", "123 Main St", baseTime.Add(time.Hour))
	seed(t, repo, "newest", "123 Main St", baseTime.Add(2*time.Hour))

	_, err := workflow.BulkRecheck()
	require.NoError(t, err)

	pending, err := workflow.ListPendingReview()
	require.NoError(t, err)

	require.Len(t, pending, 2)
	assert.Equal(t, "newest", pending[0].ID)
	assert.Equal(t, "mid", pending[1].ID)
}

func TestCompareResolvesPair(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "canonical", "123 Main St", baseTime)
	seed(t, repo, "dup", "123 Main St", baseTime.Add(time.Hour))

	_, err := workflow.RecheckOne("dup")
	require.NoError(t, err)

	pair, err := workflow.Compare("dup")
	require.NoError(t, err)
	assert.Equal(t, "dup", pair.Duplicate.ID)
	assert.Equal(t, "canonical", pair.Canonical.ID)
}

func TestCompareWithoutDuplicateLink(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "solo", "123 Main St", baseTime)

	_, err := workflow.Compare("solo")
	assert.ErrorIs(t, err, lifecycle.ErrConflict)
}

func TestCompareCanonicalDeletedOutOfBand(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "canonical", "123 Main St", baseTime)
	seed(t, repo, "dup", "123 Main St", baseTime.Add(time.Hour))

	_, err := workflow.RecheckOne("dup")
	require.NoError(t, err)

	require.NoError(t, repo.Delete("canonical"))

	_, err = workflow.Compare("dup")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPurgeGuardsDeletedFlag(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "live", "123 Main St", baseTime)

	err := workflow.Purge("live")
	assert.ErrorIs(t, err, lifecycle.ErrConflict)

	// Still present.
	_, err = repo.FindByID("live")
	require.NoError(t, err)
}

func TestPurgeRemovesSoftDeletedListing(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "gone", "123 Main St", baseTime, func(l *models.Listing) { l.MarkDeleted() })

	require.NoError(t, workflow.Purge("gone"))

	_, err := repo.FindByID("gone")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	logs, err := repo.RecentPurgeLogs(10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.PurgeReasonManual, logs[0].Reason)
}

func TestApproveThenPendingQueueShrinks(t *testing.T) {
	workflow, repo := newTestWorkflow()

	seed(t, repo, "canonical", "123 Main St", baseTime)
	seed(t, repo, "dup", "123 Main St", baseTime.Add(time.Hour))

	_, err := workflow.BulkRecheck()
	require.NoError(t, err)

	pending, err := workflow.ListPendingReview()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = workflow.Approve("dup", "canonical")
	require.NoError(t, err)

	pending, err = workflow.ListPendingReview()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
