package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"listing-catalog/internal/models"
)

// MemoryRepository is an in-process PropertyRepository used by tests and local
// development. Query semantics mirror the SQL implementations.
type MemoryRepository struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
	purges   []models.PurgeLog
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		listings: make(map[string]models.Listing),
	}
}

func (r *MemoryRepository) FindByID(id string) (*models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := l
	return &copied, nil
}

func (r *MemoryRepository) FindActiveByAddressExact(address, excludeID string) ([]models.Listing, error) {
	target := strings.TrimSpace(address)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Listing
	for _, l := range r.listings {
		if l.ID == excludeID || !l.InMatchingPool() {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(l.Address), target) {
			matches = append(matches, l)
		}
	}
	sortByCreatedAt(matches)
	return matches, nil
}

func (r *MemoryRepository) FindActiveByAddressTokens(tokens []string, excludeID string) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []models.Listing
	for _, l := range r.listings {
		if l.ID == excludeID || !l.InMatchingPool() {
			continue
		}
		address := strings.ToLower(l.Address)
		all := true
		for _, token := range tokens {
			if !strings.Contains(address, strings.ToLower(token)) {
				all = false
				break
			}
		}
		if all {
			matches = append(matches, l)
		}
	}
	sortByCreatedAt(matches)
	return matches, nil
}

func (r *MemoryRepository) FindAllActive() ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var listings []models.Listing
	for _, l := range r.listings {
		if l.InMatchingPool() && l.Status != models.ListingStatusPending {
			listings = append(listings, l)
		}
	}
	sortByCreatedAt(listings)
	return listings, nil
}

func (r *MemoryRepository) FindPending() ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var listings []models.Listing
	for _, l := range r.listings {
		if l.Status == models.ListingStatusPending && !l.Deleted {
			listings = append(listings, l)
		}
	}
	// Newest first for the review queue.
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ID > listings[j].ID
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

func (r *MemoryRepository) FindDeletedBefore(cutoff time.Time) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var listings []models.Listing
	for _, l := range r.listings {
		if l.Deleted && l.DeletedAt != nil && l.DeletedAt.Before(cutoff) {
			listings = append(listings, l)
		}
	}
	sortByCreatedAt(listings)
	return listings, nil
}

func (r *MemoryRepository) Save(l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	r.listings[l.ID] = *l
	return nil
}

func (r *MemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[id]; !ok {
		return ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *MemoryRepository) RecordPurge(entry *models.PurgeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = uint(len(r.purges) + 1)
	if entry.PurgedAt.IsZero() {
		entry.PurgedAt = time.Now()
	}
	r.purges = append(r.purges, *entry)
	return nil
}

func (r *MemoryRepository) RecentPurgeLogs(limit int) ([]models.PurgeLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	logs := make([]models.PurgeLog, len(r.purges))
	copy(logs, r.purges)
	sort.Slice(logs, func(i, j int) bool { return logs[i].PurgedAt.After(logs[j].PurgedAt) })
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func sortByCreatedAt(listings []models.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ID < listings[j].ID
		}
		return listings[i].CreatedAt.Before(listings[j].CreatedAt)
	})
}
