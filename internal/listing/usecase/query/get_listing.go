package query

import (
	"context"

	"github.com/tair/marketplace/internal/listing/domain"
)

// GetListingQuery represents the query to fetch a single listing
type GetListingQuery struct {
	ID string
}

// GetListingHandler fetches a listing by ID. No access check happens
// here: callers gate the result through the access resolver before
// returning listing content.
type GetListingHandler struct {
	listings domain.ListingRepository
}

func NewGetListingHandler(listings domain.ListingRepository) *GetListingHandler {
	return &GetListingHandler{listings: listings}
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (*domain.Listing, error) {
	return h.listings.FindByID(ctx, q.ID)
}
