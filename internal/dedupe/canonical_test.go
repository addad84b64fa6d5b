package dedupe

import (
	"testing"
	"time"

	"listing-catalog/internal/models"
)

func listingAt(id string, createdAt time.Time) models.Listing {
	return models.Listing{
		ID:        id,
		OwnerID:   "owner-1",
		Address:   "123 Main St",
		Status:    models.ListingStatusActive,
		CreatedAt: createdAt,
	}
}

func TestSelectCanonicalOldestWins(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cluster := []models.Listing{
		listingAt("b", base.Add(2*time.Hour)),
		listingAt("a", base),
		listingAt("c", base.Add(time.Hour)),
	}

	canonical := SelectCanonical(cluster)
	if canonical == nil {
		t.Fatal("SelectCanonical returned nil for non-empty cluster")
	}
	if canonical.ID != "a" {
		t.Errorf("canonical = %s, want a (oldest)", canonical.ID)
	}
}

func TestSelectCanonicalTieBreakByID(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cluster := []models.Listing{
		listingAt("z", base),
		listingAt("m", base),
		listingAt("k", base),
	}

	canonical := SelectCanonical(cluster)
	if canonical.ID != "k" {
		t.Errorf("canonical = %s, want k (lowest id on tie)", canonical.ID)
	}
}

func TestSelectCanonicalEmptyCluster(t *testing.T) {
	if got := SelectCanonical(nil); got != nil {
		t.Errorf("SelectCanonical(nil) = %v, want nil", got)
	}
}

func TestSelectCanonicalDoesNotMutateCluster(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cluster := []models.Listing{
		listingAt("b", base.Add(time.Hour)),
		listingAt("a", base),
	}

	SelectCanonical(cluster)
	if cluster[0].ID != "b" || cluster[1].ID != "a" {
		t.Error("SelectCanonical reordered the caller's slice")
	}
}
