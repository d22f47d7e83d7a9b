package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/internal/listing/repository"
)

func seed(t *testing.T, repo *repository.MemoryListingRepository, l domain.Listing) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &l))
}

func TestGetStatsEmpty(t *testing.T) {
	handler := NewGetStatsHandler(repository.NewMemoryListingRepository())

	stats, err := handler.Handle(context.Background(), GetStatsQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalEarnings)
	assert.Equal(t, int64(0), stats.ActiveListings)
	assert.Equal(t, int64(0), stats.ItemsSold)
	assert.Equal(t, int64(0), stats.TotalViews)
	assert.Equal(t, float64(0), stats.ConversionRate)
	assert.Equal(t, float64(0), stats.AvgSalePrice)
}

func TestGetStatsAfterSale(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	now := time.Now()
	seed(t, repo, domain.Listing{ID: "l1", Title: "Lamp", PriceCents: 2000, Status: domain.StatusSold, Views: 7, UpdatedAt: now})
	seed(t, repo, domain.Listing{ID: "l2", Title: "Chair", PriceCents: 5000, Status: domain.StatusActive, Views: 3, UpdatedAt: now})

	stats, err := NewGetStatsHandler(repo).Handle(context.Background(), GetStatsQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), stats.TotalEarnings)
	assert.Equal(t, int64(1), stats.ActiveListings)
	assert.Equal(t, int64(1), stats.ItemsSold)
	assert.Equal(t, int64(10), stats.TotalViews)
	assert.Equal(t, float64(50), stats.ConversionRate)
	assert.Equal(t, float64(2000), stats.AvgSalePrice)
	assert.Equal(t, int64(2000), stats.MonthlyRevenue)
}

func TestGetStatsKeepsFractionalRatios(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	now := time.Now()
	seed(t, repo, domain.Listing{ID: "l1", PriceCents: 999, Status: domain.StatusSold, UpdatedAt: now})
	seed(t, repo, domain.Listing{ID: "l2", PriceCents: 1000, Status: domain.StatusSold, UpdatedAt: now})
	seed(t, repo, domain.Listing{ID: "l3", Status: domain.StatusActive, UpdatedAt: now})

	stats, err := NewGetStatsHandler(repo).Handle(context.Background(), GetStatsQuery{})
	require.NoError(t, err)

	// Two of three sold: the ratios carry their fractions unrounded.
	assert.InDelta(t, 66.6667, stats.ConversionRate, 0.001)
	assert.InDelta(t, 999.5, stats.AvgSalePrice, 0.0001)
}

func TestGetStatsMonthlyWindow(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	seed(t, repo, domain.Listing{ID: "old", PriceCents: 1000, Status: domain.StatusSold, UpdatedAt: time.Now().Add(-45 * 24 * time.Hour)})
	seed(t, repo, domain.Listing{ID: "new", PriceCents: 3000, Status: domain.StatusSold, UpdatedAt: time.Now()})

	stats, err := NewGetStatsHandler(repo).Handle(context.Background(), GetStatsQuery{})
	require.NoError(t, err)

	// Lifetime earnings count both sales, the monthly window only one.
	assert.Equal(t, int64(4000), stats.TotalEarnings)
	assert.Equal(t, int64(3000), stats.MonthlyRevenue)
	assert.Equal(t, float64(2000), stats.AvgSalePrice)
}

func TestGetStatsArchivedExcludedFromCounts(t *testing.T) {
	repo := repository.NewMemoryListingRepository()
	seed(t, repo, domain.Listing{ID: "l1", PriceCents: 1000, Status: domain.StatusArchived, Views: 4})

	stats, err := NewGetStatsHandler(repo).Handle(context.Background(), GetStatsQuery{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.ActiveListings)
	assert.Equal(t, int64(0), stats.ItemsSold)
	assert.Equal(t, int64(0), stats.TotalEarnings)
	// Views still count regardless of status.
	assert.Equal(t, int64(4), stats.TotalViews)
	assert.Equal(t, float64(0), stats.ConversionRate)
}

func TestListListingsRejectsUnknownEnums(t *testing.T) {
	repo := repository.NewMemoryListingRepository()

	_, err := NewListListingsHandler(repo).Handle(context.Background(), ListListingsQuery{
		Filter: domain.ListingFilter{Category: "furniture"},
	})
	assert.True(t, domain.IsValidation(err))

	_, err = NewListByStatusHandler(repo).Handle(context.Background(), ListByStatusQuery{Status: "pending"})
	assert.True(t, domain.IsValidation(err))
}

func TestListActivitiesRejectsNegativeLimit(t *testing.T) {
	handler := NewListActivitiesHandler(repository.NewMemoryActivityRepository())
	_, err := handler.Handle(context.Background(), ListActivitiesQuery{Limit: -1})
	assert.True(t, domain.IsValidation(err))
}
