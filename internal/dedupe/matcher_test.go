package dedupe

import (
	"testing"
	"time"

	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"
)

func seedListing(t *testing.T, repo *repository.MemoryRepository, id, address string, mutate ...func(*models.Listing)) *models.Listing {
	t.Helper()
	l := &models.Listing{
		ID:        id,
		OwnerID:   "owner-1",
		Title:     "Listing " + id,
		Address:   address,
		Status:    models.ListingStatusActive,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	for _, m := range mutate {
		m(l)
	}
	if err := repo.Save(l); err != nil {
		t.Fatalf("seed listing %s: %v", id, err)
	}
	return l
}

func TestFindExactCaseInsensitive(t *testing.T) {
	repo := repository.NewMemoryRepository()
	matcher := NewMatcher(repo)

	seedListing(t, repo, "original", "123 Main St")
	target := seedListing(t, repo, "incoming", "123 MAIN ST")

	matches, err := matcher.FindExact(target)
	if err != nil {
		t.Fatalf("FindExact: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "original" {
		t.Fatalf("FindExact = %v, want [original]", matches)
	}
}

func TestFindExactBlankAddressShortCircuits(t *testing.T) {
	repo := repository.NewMemoryRepository()
	matcher := NewMatcher(repo)

	seedListing(t, repo, "other-blank", "   ")
	target := seedListing(t, repo, "incoming", "")

	matches, err := matcher.FindExact(target)
	if err != nil {
		t.Fatalf("FindExact: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("blank address matched %d listings, want 0", len(matches))
	}
}

func TestFindExactExcludesSelfArchivedAndDeleted(t *testing.T) {
	repo := repository.NewMemoryRepository()
	matcher := NewMatcher(repo)

	target := seedListing(t, repo, "incoming", "9 Oak Ave")
	seedListing(t, repo, "archived", "9 Oak Ave", func(l *models.Listing) { l.Archived = true })
	seedListing(t, repo, "deleted", "9 Oak Ave", func(l *models.Listing) { l.MarkDeleted() })
	seedListing(t, repo, "visible", "9 Oak Ave")

	matches, err := matcher.FindExact(target)
	if err != nil {
		t.Fatalf("FindExact: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "visible" {
		t.Fatalf("FindExact = %v, want [visible]", matches)
	}
}

func TestFindSimilarTokensAnyOrder(t *testing.T) {
	repo := repository.NewMemoryRepository()
	matcher := NewMatcher(repo)

	target := seedListing(t, repo, "incoming", "Riverside Plaza")
	seedListing(t, repo, "reordered", "Plaza at Riverside, unit 4")
	seedListing(t, repo, "partial", "Riverside Drive 9")

	matches, err := matcher.FindSimilar(target)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "reordered" {
		t.Fatalf("FindSimilar = %v, want [reordered]", matches)
	}
}

func TestFindSimilarNoUsableTokens(t *testing.T) {
	repo := repository.NewMemoryRepository()
	matcher := NewMatcher(repo)

	seedListing(t, repo, "other", "12 Elm Row")
	target := seedListing(t, repo, "incoming", "a b c")

	matches, err := matcher.FindSimilar(target)
	if err != nil {
		t.Fatalf("FindSimilar: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("token-less address matched %d listings, want 0", len(matches))
	}
}

func TestMatcherIsReadOnly(t *testing.T) {
	repo := repository.NewMemoryRepository()
	matcher := NewMatcher(repo)

	seedListing(t, repo, "original", "77 Birch Ln")
	target := seedListing(t, repo, "incoming", "77 Birch Ln")

	if _, err := matcher.FindExact(target); err != nil {
		t.Fatalf("FindExact: %v", err)
	}

	reloaded, err := repo.FindByID("incoming")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if reloaded.Status != models.ListingStatusActive || reloaded.DuplicateOf != nil {
		t.Error("matcher mutated listing state")
	}
}
