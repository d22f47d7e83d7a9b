package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/marketplace/internal/listing/domain"
)

// GetStatsQuery represents the query for dashboard statistics
type GetStatsQuery struct{}

// UserStats is the derived dashboard projection. It is recomputed from
// current listings on every call and never persisted. Monetary fields
// are in minor units.
type UserStats struct {
	TotalEarnings  int64   `json:"totalEarnings"`
	ActiveListings int64   `json:"activeListings"`
	ItemsSold      int64   `json:"itemsSold"`
	TotalViews     int64   `json:"totalViews"`
	MonthlyRevenue int64   `json:"monthlyRevenue"`
	ConversionRate float64 `json:"conversionRate"`
	AvgSalePrice   float64 `json:"avgSalePrice"`
}

// GetStatsHandler folds over the listing store to produce UserStats
type GetStatsHandler struct {
	listings domain.ListingRepository
}

func NewGetStatsHandler(listings domain.ListingRepository) *GetStatsHandler {
	return &GetStatsHandler{listings: listings}
}

func (h *GetStatsHandler) Handle(ctx context.Context, _ GetStatsQuery) (*UserStats, error) {
	listings, err := h.listings.FindAll(ctx, domain.ListingFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load listings for stats: %w", err)
	}

	stats := &UserStats{}
	thirtyDaysAgo := time.Now().Add(-30 * 24 * time.Hour)

	var soldCount int64
	for _, l := range listings {
		stats.TotalViews += l.Views

		switch l.Status {
		case domain.StatusActive:
			stats.ActiveListings++
		case domain.StatusSold:
			soldCount++
			stats.TotalEarnings += l.PriceCents
			if l.UpdatedAt.After(thirtyDaysAgo) {
				stats.MonthlyRevenue += l.PriceCents
			}
		}
	}

	stats.ItemsSold = soldCount

	// Zero listings / zero sales must yield zeros, never a division
	// error. Ratios stay fractional; rounding is a presentation concern.
	if len(listings) > 0 {
		stats.ConversionRate = float64(soldCount) / float64(len(listings)) * 100
	}
	if soldCount > 0 {
		stats.AvgSalePrice = float64(stats.TotalEarnings) / float64(soldCount)
	}

	return stats, nil
}
