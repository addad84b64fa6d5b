package dedupe

import (
	"fmt"

	"listing-catalog/internal/models"
	"listing-catalog/internal/repository"
)

// Matcher finds candidate duplicates for a listing against the catalog.
// Both lookups are read-only; lifecycle transitions belong to the lifecycle
// service.
type Matcher struct {
	repo repository.PropertyRepository
}

// NewMatcher creates a matcher over the given repository.
func NewMatcher(repo repository.PropertyRepository) *Matcher {
	return &Matcher{repo: repo}
}

// FindExact returns matching-pool listings whose address equals the target's
// case-insensitively, excluding the target itself. A blank address short-
// circuits to an empty set: blank-address listings are exempt from matching.
func (m *Matcher) FindExact(l *models.Listing) ([]models.Listing, error) {
	address := ExactKey(l.Address)
	if address == "" {
		return nil, nil
	}

	matches, err := m.repo.FindActiveByAddressExact(address, l.ID)
	if err != nil {
		return nil, fmt.Errorf("exact address lookup for %s: %w", l.ID, err)
	}
	return matches, nil
}

// FindSimilar returns matching-pool listings whose address contains every
// token of the target's address, in any order. This is a recall-oriented
// heuristic: false positives for generic street words are expected and left
// to human review. Listings without usable tokens match nothing.
func (m *Matcher) FindSimilar(l *models.Listing) ([]models.Listing, error) {
	tokens := Tokens(l.Address)
	if len(tokens) == 0 {
		return nil, nil
	}

	matches, err := m.repo.FindActiveByAddressTokens(tokens, l.ID)
	if err != nil {
		return nil, fmt.Errorf("token address lookup for %s: %w", l.ID, err)
	}
	return matches, nil
}
