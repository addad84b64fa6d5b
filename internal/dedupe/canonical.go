package dedupe

import (
	"sort"

	"listing-catalog/internal/models"
)

// SelectCanonical picks the canonical record out of a cluster of mutually
// matching listings: oldest created_at wins, ties broken by id ascending so
// the choice is deterministic. Pure function; the cluster is not modified.
// Returns nil for an empty cluster.
func SelectCanonical(cluster []models.Listing) *models.Listing {
	if len(cluster) == 0 {
		return nil
	}

	sorted := make([]models.Listing, len(cluster))
	copy(sorted, cluster)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	canonical := sorted[0]
	return &canonical
}
