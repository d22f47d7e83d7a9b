package command

import (
	"context"
	"fmt"

	"github.com/tair/marketplace/internal/listing/domain"
)

// DeleteListingCommand represents the command to delete a listing
type DeleteListingCommand struct {
	ID string
}

// DeleteListingHandler handles listing deletion. Deleting a missing
// listing is not an error; the handler reports whether anything was
// removed.
type DeleteListingHandler struct {
	listings domain.ListingRepository
}

func NewDeleteListingHandler(listings domain.ListingRepository) *DeleteListingHandler {
	return &DeleteListingHandler{listings: listings}
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (bool, error) {
	deleted, err := h.listings.Delete(ctx, cmd.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete listing: %w", err)
	}
	return deleted, nil
}
