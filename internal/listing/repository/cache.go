package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/pkg/logger"
)

const listingCacheTTL = 5 * time.Minute

// CachedListingRepository is a read-through Redis cache in front of a
// ListingRepository. Cache failures degrade to the inner repository; a
// nil client disables caching entirely. Every mutation invalidates the
// record's cache entry, view increments included.
type CachedListingRepository struct {
	domain.ListingRepository
	client *redis.Client
}

func NewCachedListingRepository(inner domain.ListingRepository, client *redis.Client) *CachedListingRepository {
	return &CachedListingRepository{ListingRepository: inner, client: client}
}

func cacheKey(id string) string {
	return "listing:" + id
}

func (r *CachedListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	if r.client == nil {
		return r.ListingRepository.FindByID(ctx, id)
	}

	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil && len(data) > 0 {
		var listing domain.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			return &listing, nil
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn(ctx).Err(err).Str("listing_id", id).Msg("Listing cache read failed")
	}

	listing, err := r.ListingRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(listing); err == nil {
		if err := r.client.Set(ctx, cacheKey(id), data, listingCacheTTL).Err(); err != nil {
			logger.Warn(ctx).Err(err).Str("listing_id", id).Msg("Listing cache write failed")
		}
	}
	return listing, nil
}

func (r *CachedListingRepository) Update(ctx context.Context, id string, patch domain.ListingPatch) (*domain.Listing, error) {
	listing, err := r.ListingRepository.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return listing, nil
}

func (r *CachedListingRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.ListingRepository.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		r.invalidate(ctx, id)
	}
	return deleted, nil
}

func (r *CachedListingRepository) IncrementViews(ctx context.Context, id string) error {
	if err := r.ListingRepository.IncrementViews(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedListingRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ListingStatus) (bool, error) {
	ok, err := r.ListingRepository.TransitionStatus(ctx, id, from, to)
	if err != nil {
		return false, err
	}
	if ok {
		r.invalidate(ctx, id)
	}
	return ok, nil
}

func (r *CachedListingRepository) SetShareLink(ctx context.Context, id, token string) (bool, error) {
	ok, err := r.ListingRepository.SetShareLink(ctx, id, token)
	if err != nil {
		return false, err
	}
	if ok {
		r.invalidate(ctx, id)
	}
	return ok, nil
}

func (r *CachedListingRepository) invalidate(ctx context.Context, id string) {
	if r.client == nil {
		return
	}
	if err := r.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("listing_id", id).Msg("Listing cache invalidation failed")
	}
}
