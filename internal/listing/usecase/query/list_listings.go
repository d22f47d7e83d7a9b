package query

import (
	"context"

	"github.com/tair/marketplace/internal/listing/domain"
)

// ListListingsQuery represents the query to browse or search listings.
// All constraints are optional and compose conjunctively; an empty
// query returns every listing.
type ListListingsQuery struct {
	Filter domain.ListingFilter
}

// ListListingsHandler handles browse and free-text search
type ListListingsHandler struct {
	listings domain.ListingRepository
}

func NewListListingsHandler(listings domain.ListingRepository) *ListListingsHandler {
	return &ListListingsHandler{listings: listings}
}

func (h *ListListingsHandler) Handle(ctx context.Context, q ListListingsQuery) ([]domain.Listing, error) {
	if q.Filter.Category != "" && !q.Filter.Category.Valid() {
		return nil, domain.NewValidationError("category", "unknown value")
	}
	if q.Filter.Visibility != "" && !q.Filter.Visibility.Valid() {
		return nil, domain.NewValidationError("visibility", "unknown value")
	}
	return h.listings.FindAll(ctx, q.Filter)
}

// ListByStatusQuery represents the query to filter listings by status
type ListByStatusQuery struct {
	Status domain.ListingStatus
}

// ListByStatusHandler filters listings by lifecycle status
type ListByStatusHandler struct {
	listings domain.ListingRepository
}

func NewListByStatusHandler(listings domain.ListingRepository) *ListByStatusHandler {
	return &ListByStatusHandler{listings: listings}
}

func (h *ListByStatusHandler) Handle(ctx context.Context, q ListByStatusQuery) ([]domain.Listing, error) {
	if !q.Status.Valid() {
		return nil, domain.NewValidationError("status", "unknown value")
	}
	return h.listings.FindByStatus(ctx, q.Status)
}
