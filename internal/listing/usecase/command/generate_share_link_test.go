package command

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/marketplace/internal/listing/domain"
)

var shareTokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)

func TestGenerateShareLink(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	handler := NewGenerateShareLinkHandler(listings, activities)
	token, err := handler.Handle(context.Background(), GenerateShareLinkCommand{ID: created.ID})
	require.NoError(t, err)
	assert.Regexp(t, shareTokenPattern, token)

	stored, err := listings.FindByShareLink(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, stored.ID)
}

func TestGenerateShareLinkIdempotent(t *testing.T) {
	listings, activities := newTestRepos()
	created, err := NewCreateListingHandler(listings, activities).Handle(context.Background(), validCreateCommand())
	require.NoError(t, err)

	handler := NewGenerateShareLinkHandler(listings, activities)
	first, err := handler.Handle(context.Background(), GenerateShareLinkCommand{ID: created.ID})
	require.NoError(t, err)

	second, err := handler.Handle(context.Background(), GenerateShareLinkCommand{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Only the first issuance is narrated.
	recent, err := activities.Recent(context.Background(), 0)
	require.NoError(t, err)
	var shared int
	for _, a := range recent {
		if a.Type == domain.ActivityListingShared {
			shared++
		}
	}
	assert.Equal(t, 1, shared)
}

func TestGenerateShareLinkMissingListing(t *testing.T) {
	listings, activities := newTestRepos()
	handler := NewGenerateShareLinkHandler(listings, activities)

	_, err := handler.Handle(context.Background(), GenerateShareLinkCommand{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShareTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := newShareToken()
		require.NoError(t, err)
		assert.Regexp(t, shareTokenPattern, token)
		assert.False(t, seen[token], "token collision: %s", token)
		seen[token] = true
	}
}
