package command

import (
	"context"
	"fmt"

	"github.com/tair/marketplace/internal/listing/domain"
)

// UpdateListingCommand carries a partial update for a listing
type UpdateListingCommand struct {
	ID    string
	Patch domain.ListingPatch
}

// UpdateListingHandler handles partial listing updates. It merges the
// patch and refreshes UpdatedAt but deliberately appends no activity:
// callers narrate the change (listing_edited, sale, ...) themselves.
type UpdateListingHandler struct {
	listings domain.ListingRepository
}

func NewUpdateListingHandler(listings domain.ListingRepository) *UpdateListingHandler {
	return &UpdateListingHandler{listings: listings}
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*domain.Listing, error) {
	if err := validatePatch(cmd.Patch); err != nil {
		return nil, err
	}
	if cmd.Patch.InvitedEmails != nil {
		normalized := normalizeEmails(*cmd.Patch.InvitedEmails)
		cmd.Patch.InvitedEmails = &normalized
	}

	// The repository writes only the patched columns; a sale or view
	// increment racing this edit keeps its effect.
	listing, err := h.listings.Update(ctx, cmd.ID, cmd.Patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return listing, nil
}

func validatePatch(p domain.ListingPatch) error {
	if p.Title != nil && *p.Title == "" {
		return domain.NewValidationError("title", "cannot be empty")
	}
	if p.Description != nil && *p.Description == "" {
		return domain.NewValidationError("description", "cannot be empty")
	}
	if p.PriceCents != nil && *p.PriceCents < 0 {
		return domain.NewValidationError("price", "cannot be negative")
	}
	if p.Category != nil && !p.Category.Valid() {
		return domain.NewValidationError("category", "unknown value")
	}
	if p.Condition != nil && !p.Condition.Valid() {
		return domain.NewValidationError("condition", "unknown value")
	}
	if p.Visibility != nil && !p.Visibility.Valid() {
		return domain.NewValidationError("visibility", "unknown value")
	}
	if p.Images != nil && len(*p.Images) > domain.MaxImages {
		return domain.NewValidationError("images", fmt.Sprintf("at most %d images allowed", domain.MaxImages))
	}
	return nil
}
