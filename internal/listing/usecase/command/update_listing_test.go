package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/marketplace/internal/listing/domain"
)

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func TestUpdateListingPreservesSale(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	// The listing sells between the editor loading it and submitting
	// the edit. The edit must not write the stale active status back.
	_, err = NewMarkSoldHandler(listings, activities).Handle(context.Background(), MarkSoldCommand{ID: created.ID, SalePriceCents: 2000})
	require.NoError(t, err)

	updated, err := NewUpdateListingHandler(listings).Handle(context.Background(), UpdateListingCommand{
		ID:    created.ID,
		Patch: domain.ListingPatch{Title: strPtr("Brass Lamp")},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSold, updated.Status)
	assert.Equal(t, "Brass Lamp", updated.Title)
}

func TestUpdateListingMergesPatch(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	handler := NewUpdateListingHandler(listings)
	updated, err := handler.Handle(context.Background(), UpdateListingCommand{
		ID: created.ID,
		Patch: domain.ListingPatch{
			Title:      strPtr("Vintage Brass Lamp"),
			PriceCents: int64Ptr(2500),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Vintage Brass Lamp", updated.Title)
	assert.Equal(t, int64(2500), updated.PriceCents)
	// Untouched fields survive the merge.
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, created.Status, updated.Status)
}

func TestUpdateListingValidatesPatch(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	handler := NewUpdateListingHandler(listings)

	badCategory := domain.Category("furniture")
	tests := []struct {
		name  string
		patch domain.ListingPatch
	}{
		{"empty title", domain.ListingPatch{Title: strPtr("")}},
		{"negative price", domain.ListingPatch{PriceCents: int64Ptr(-1)}},
		{"unknown category", domain.ListingPatch{Category: &badCategory}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(context.Background(), UpdateListingCommand{ID: created.ID, Patch: tt.patch})
			assert.True(t, domain.IsValidation(err), "expected validation error, got %v", err)
		})
	}

	// Rejected patches never partially apply.
	stored, err := listings.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, stored.Title)
	assert.Equal(t, created.PriceCents, stored.PriceCents)
}

func TestUpdateListingNormalizesInvitedEmails(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	emails := []string{"Carol@Example.com", "carol@example.com"}
	updated, err := NewUpdateListingHandler(listings).Handle(context.Background(), UpdateListingCommand{
		ID:    created.ID,
		Patch: domain.ListingPatch{InvitedEmails: &emails},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol@example.com"}, updated.InvitedEmails)
}

func TestUpdateListingMissing(t *testing.T) {
	listings, _ := newTestRepos()
	_, err := NewUpdateListingHandler(listings).Handle(context.Background(), UpdateListingCommand{
		ID:    "missing",
		Patch: domain.ListingPatch{Title: strPtr("x")},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteListingIdempotent(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	handler := NewDeleteListingHandler(listings)

	deleted, err := handler.Handle(context.Background(), DeleteListingCommand{ID: created.ID})
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = handler.Handle(context.Background(), DeleteListingCommand{ID: created.ID})
	require.NoError(t, err)
	assert.False(t, deleted)
}
