package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/marketplace/internal/listing/domain"
)

func TestMarkSold(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	handler := NewMarkSoldHandler(listings, activities)
	sold, err := handler.Handle(context.Background(), MarkSoldCommand{
		ID:             created.ID,
		SalePriceCents: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, sold.Status)

	recent, err := activities.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	sale := recent[0]
	assert.Equal(t, domain.ActivitySale, sale.Type)
	require.NotNil(t, sale.AmountCents)
	assert.Equal(t, int64(2000), *sale.AmountCents)
	assert.Contains(t, sale.Description, "$20.00")
}

func TestMarkSoldTwiceRejected(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	handler := NewMarkSoldHandler(listings, activities)
	_, err = handler.Handle(context.Background(), MarkSoldCommand{ID: created.ID, SalePriceCents: 2000})
	require.NoError(t, err)

	_, err = handler.Handle(context.Background(), MarkSoldCommand{ID: created.ID, SalePriceCents: 2000})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// Only the first sale reaches the ledger.
	recent, _ := activities.Recent(context.Background(), 0)
	var sales int
	for _, a := range recent {
		if a.Type == domain.ActivitySale {
			sales++
		}
	}
	assert.Equal(t, 1, sales)
}

func TestMarkSoldMissingListing(t *testing.T) {
	listings, activities := newTestRepos()
	handler := NewMarkSoldHandler(listings, activities)

	_, err := handler.Handle(context.Background(), MarkSoldCommand{ID: "missing", SalePriceCents: 100})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkSoldNegativePrice(t *testing.T) {
	listings, activities := newTestRepos()
	handler := NewMarkSoldHandler(listings, activities)

	_, err := handler.Handle(context.Background(), MarkSoldCommand{ID: "any", SalePriceCents: -5})
	assert.True(t, domain.IsValidation(err))
}

func TestArchiveListing(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	archived, err := NewArchiveListingHandler(listings).Handle(context.Background(), ArchiveListingCommand{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusArchived, archived.Status)

	// Archived is terminal; selling it is rejected.
	_, err = NewMarkSoldHandler(listings, activities).Handle(context.Background(), MarkSoldCommand{ID: created.ID, SalePriceCents: 100})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
