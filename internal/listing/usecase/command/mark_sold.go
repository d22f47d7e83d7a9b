package command

import (
	"context"
	"fmt"

	"github.com/tair/marketplace/internal/listing/domain"
)

// MarkSoldCommand represents the command to mark a listing as sold
type MarkSoldCommand struct {
	ID             string
	SalePriceCents int64
}

// MarkSoldHandler transitions a listing from active to sold and records
// the sale in the activity ledger. Marking an already-sold or archived
// listing sold is rejected with ErrInvalidState.
type MarkSoldHandler struct {
	listings   domain.ListingRepository
	activities domain.ActivityRepository
}

func NewMarkSoldHandler(listings domain.ListingRepository, activities domain.ActivityRepository) *MarkSoldHandler {
	return &MarkSoldHandler{listings: listings, activities: activities}
}

func (h *MarkSoldHandler) Handle(ctx context.Context, cmd MarkSoldCommand) (*domain.Listing, error) {
	if cmd.SalePriceCents < 0 {
		return nil, domain.NewValidationError("salePrice", "cannot be negative")
	}

	listing, err := h.listings.FindByID(ctx, cmd.ID)
	if err != nil {
		return nil, err
	}

	// The guarded transition is the arbiter under concurrency; the
	// FindByID above only produces a friendlier error for the common case.
	if listing.Status != domain.StatusActive {
		return nil, domain.ErrInvalidState
	}

	ok, err := h.listings.TransitionStatus(ctx, cmd.ID, domain.StatusActive, domain.StatusSold)
	if err != nil {
		return nil, fmt.Errorf("failed to mark listing sold: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidState
	}

	amount := cmd.SalePriceCents
	if err := h.activities.Append(ctx, &domain.Activity{
		Type:        domain.ActivitySale,
		Description: fmt.Sprintf("%s sold for $%.2f", listing.Title, float64(amount)/100),
		ListingID:   listing.ID,
		AmountCents: &amount,
	}); err != nil {
		return nil, fmt.Errorf("failed to record sale activity: %w", err)
	}

	return h.listings.FindByID(ctx, cmd.ID)
}
