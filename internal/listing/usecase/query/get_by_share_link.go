package query

import (
	"context"

	"github.com/tair/marketplace/internal/listing/domain"
)

// GetByShareLinkQuery represents the query to resolve a share token
type GetByShareLinkQuery struct {
	Token string
}

// GetByShareLinkHandler resolves a share token to its listing. Like
// GetListingHandler, access control stays with the caller.
type GetByShareLinkHandler struct {
	listings domain.ListingRepository
}

func NewGetByShareLinkHandler(listings domain.ListingRepository) *GetByShareLinkHandler {
	return &GetByShareLinkHandler{listings: listings}
}

func (h *GetByShareLinkHandler) Handle(ctx context.Context, q GetByShareLinkQuery) (*domain.Listing, error) {
	return h.listings.FindByShareLink(ctx, q.Token)
}
