package command

import (
	"context"
	"fmt"

	"github.com/tair/marketplace/internal/listing/domain"
)

// ArchiveListingCommand represents the command to archive a listing
type ArchiveListingCommand struct {
	ID string
}

// ArchiveListingHandler moves an active listing into the terminal
// archived state, removing it from browse results.
type ArchiveListingHandler struct {
	listings domain.ListingRepository
}

func NewArchiveListingHandler(listings domain.ListingRepository) *ArchiveListingHandler {
	return &ArchiveListingHandler{listings: listings}
}

func (h *ArchiveListingHandler) Handle(ctx context.Context, cmd ArchiveListingCommand) (*domain.Listing, error) {
	listing, err := h.listings.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	if listing.Status != domain.StatusActive {
		return nil, domain.ErrInvalidState
	}

	ok, err := h.listings.TransitionStatus(ctx, cmd.ID, domain.StatusActive, domain.StatusArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to archive listing: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidState
	}

	return h.listings.FindByID(ctx, cmd.ID)
}
