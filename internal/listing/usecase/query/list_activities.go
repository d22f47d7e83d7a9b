package query

import (
	"context"

	"github.com/tair/marketplace/internal/listing/domain"
)

// ListActivitiesQuery represents the query for recent ledger entries
type ListActivitiesQuery struct {
	Limit int
}

// ListActivitiesHandler reads the activity ledger newest-first
type ListActivitiesHandler struct {
	activities domain.ActivityRepository
}

func NewListActivitiesHandler(activities domain.ActivityRepository) *ListActivitiesHandler {
	return &ListActivitiesHandler{activities: activities}
}

func (h *ListActivitiesHandler) Handle(ctx context.Context, q ListActivitiesQuery) ([]domain.Activity, error) {
	if q.Limit < 0 {
		return nil, domain.NewValidationError("limit", "cannot be negative")
	}
	return h.activities.Recent(ctx, q.Limit)
}
