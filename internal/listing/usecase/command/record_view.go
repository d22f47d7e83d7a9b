package command

import (
	"context"
	"fmt"

	"github.com/tair/marketplace/internal/listing/domain"
)

// RecordViewCommand represents the command to count a listing view
type RecordViewCommand struct {
	ID string
}

// RecordViewHandler increments the view counter. Views are not written
// to the activity ledger on this hot path; that would flood the audit
// trail (one ledger row per page load).
type RecordViewHandler struct {
	listings domain.ListingRepository
}

func NewRecordViewHandler(listings domain.ListingRepository) *RecordViewHandler {
	return &RecordViewHandler{listings: listings}
}

func (h *RecordViewHandler) Handle(ctx context.Context, cmd RecordViewCommand) error {
	if err := h.listings.IncrementViews(ctx, cmd.ID); err != nil {
		if err == domain.ErrNotFound {
			return err
		}
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}
