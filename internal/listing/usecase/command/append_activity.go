package command

import (
	"context"
	"fmt"

	"github.com/tair/marketplace/internal/listing/domain"
)

// AppendActivityCommand represents the command to append a ledger entry
type AppendActivityCommand struct {
	Type        domain.ActivityType
	Description string
	ListingID   string
	AmountCents *int64
}

// AppendActivityHandler appends an entry to the activity ledger. The
// repository assigns the ID and timestamp at write time, so callers
// cannot backdate events.
type AppendActivityHandler struct {
	activities domain.ActivityRepository
}

func NewAppendActivityHandler(activities domain.ActivityRepository) *AppendActivityHandler {
	return &AppendActivityHandler{activities: activities}
}

func (h *AppendActivityHandler) Handle(ctx context.Context, cmd AppendActivityCommand) (*domain.Activity, error) {
	activity := &domain.Activity{
		Type:        cmd.Type,
		Description: cmd.Description,
		ListingID:   cmd.ListingID,
		AmountCents: cmd.AmountCents,
	}
	if err := h.activities.Append(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}
	return activity, nil
}
