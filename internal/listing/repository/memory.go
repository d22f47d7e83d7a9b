package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tair/marketplace/internal/listing/domain"
)

// MemoryListingRepository is an in-memory ListingRepository used by tests
// and local development. A single mutex serializes mutations, which
// satisfies the per-record atomicity the interface demands.
type MemoryListingRepository struct {
	mu       sync.RWMutex
	listings []domain.Listing
}

func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{}
}

func (r *MemoryListingRepository) Create(_ context.Context, listing *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Newest first, matching the query order of the SQL implementation.
	r.listings = append([]domain.Listing{*listing}, r.listings...)
	return nil
}

func (r *MemoryListingRepository) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			l := r.listings[i]
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryListingRepository) FindByShareLink(_ context.Context, token string) (*domain.Listing, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.listings {
		if r.listings[i].ShareTokenMatches(token) {
			l := r.listings[i]
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryListingRepository) FindAll(_ context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	var result []domain.Listing
	for _, l := range r.listings {
		if query != "" &&
			!strings.Contains(strings.ToLower(l.Title), query) &&
			!strings.Contains(strings.ToLower(l.Description), query) {
			continue
		}
		if filter.Category != "" && l.Category != filter.Category {
			continue
		}
		if filter.Visibility != "" && l.Visibility != filter.Visibility {
			continue
		}
		result = append(result, l)
	}
	return result, nil
}

func (r *MemoryListingRepository) FindByStatus(_ context.Context, status domain.ListingStatus) ([]domain.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Listing
	for _, l := range r.listings {
		if l.Status == status {
			result = append(result, l)
		}
	}
	return result, nil
}

// Update merges the patch field-wise under the write lock, so an edit
// never writes a stale status, view count or share link back.
func (r *MemoryListingRepository) Update(_ context.Context, id string, patch domain.ListingPatch) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			patch.Apply(&r.listings[i])
			r.listings[i].UpdatedAt = time.Now()
			l := r.listings[i]
			return &l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryListingRepository) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			r.listings = append(r.listings[:i], r.listings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryListingRepository) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			r.listings[i].Views++
			r.listings[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *MemoryListingRepository) TransitionStatus(_ context.Context, id string, from, to domain.ListingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			if r.listings[i].Status != from {
				return false, nil
			}
			r.listings[i].Status = to
			r.listings[i].UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryListingRepository) SetShareLink(_ context.Context, id, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.listings {
		if r.listings[i].ID == id {
			if r.listings[i].ShareLink != nil {
				return false, nil
			}
			r.listings[i].ShareLink = &token
			r.listings[i].UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

// MemoryActivityRepository is the in-memory ledger counterpart.
type MemoryActivityRepository struct {
	mu         sync.RWMutex
	activities []domain.Activity
}

func NewMemoryActivityRepository() *MemoryActivityRepository {
	return &MemoryActivityRepository{}
}

func (r *MemoryActivityRepository) Append(_ context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	activity.ID = uuid.NewString()
	activity.Timestamp = time.Now()
	r.activities = append(r.activities, *activity)
	return nil
}

func (r *MemoryActivityRepository) Recent(_ context.Context, limit int) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Activity, len(r.activities))
	copy(result, r.activities)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
