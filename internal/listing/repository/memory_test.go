package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/marketplace/internal/listing/domain"
)

func seedListing(t *testing.T, repo *MemoryListingRepository, l domain.Listing) domain.Listing {
	t.Helper()
	if l.ID == "" {
		l.ID = "listing-1"
	}
	if l.Status == "" {
		l.Status = domain.StatusActive
	}
	require.NoError(t, repo.Create(context.Background(), &l))
	return l
}

func TestConcurrentIncrementViews(t *testing.T) {
	repo := NewMemoryListingRepository()
	seedListing(t, repo, domain.Listing{ID: "l1", Title: "Lamp"})

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_ = repo.IncrementViews(context.Background(), "l1")
		}()
	}
	wg.Wait()

	listing, err := repo.FindByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, int64(n), listing.Views)
}

func TestUpdateWritesOnlyPatchedFields(t *testing.T) {
	repo := NewMemoryListingRepository()
	seedListing(t, repo, domain.Listing{ID: "l1", Title: "Lamp", PriceCents: 2000})

	// A sale and a view land between the editor reading the listing and
	// writing the edit. Neither may be clobbered by the patch.
	ok, err := repo.TransitionStatus(context.Background(), "l1", domain.StatusActive, domain.StatusSold)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.IncrementViews(context.Background(), "l1"))

	title := "Brass Lamp"
	updated, err := repo.Update(context.Background(), "l1", domain.ListingPatch{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "Brass Lamp", updated.Title)
	assert.Equal(t, domain.StatusSold, updated.Status)
	assert.Equal(t, int64(1), updated.Views)
}

func TestUpdateMissingListing(t *testing.T) {
	repo := NewMemoryListingRepository()
	title := "anything"
	_, err := repo.Update(context.Background(), "missing", domain.ListingPatch{Title: &title})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransitionStatusGuard(t *testing.T) {
	repo := NewMemoryListingRepository()
	seedListing(t, repo, domain.Listing{ID: "l1"})

	ok, err := repo.TransitionStatus(context.Background(), "l1", domain.StatusActive, domain.StatusSold)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second transition from active must miss: the listing is sold now.
	ok, err = repo.TransitionStatus(context.Background(), "l1", domain.StatusActive, domain.StatusSold)
	require.NoError(t, err)
	assert.False(t, ok)

	listing, err := repo.FindByID(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSold, listing.Status)
}

func TestConcurrentTransitionOnlyOneWins(t *testing.T) {
	repo := NewMemoryListingRepository()
	seedListing(t, repo, domain.Listing{ID: "l1"})

	const n = 20
	results := make(chan bool, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			ok, err := repo.TransitionStatus(context.Background(), "l1", domain.StatusActive, domain.StatusSold)
			assert.NoError(t, err)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for ok := range results {
		if ok {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestSetShareLinkOnlyOnce(t *testing.T) {
	repo := NewMemoryListingRepository()
	seedListing(t, repo, domain.Listing{ID: "l1"})

	ok, err := repo.SetShareLink(context.Background(), "l1", "tokenA")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetShareLink(context.Background(), "l1", "tokenB")
	require.NoError(t, err)
	assert.False(t, ok)

	listing, err := repo.FindByID(context.Background(), "l1")
	require.NoError(t, err)
	require.NotNil(t, listing.ShareLink)
	assert.Equal(t, "tokenA", *listing.ShareLink)
}

func TestShareLinkNilUntilIssued(t *testing.T) {
	repo := NewMemoryListingRepository()
	// Several unissued listings must coexist: the share link column is
	// unique, and only the nil sentinel keeps unissued rows from
	// colliding with each other.
	seedListing(t, repo, domain.Listing{ID: "l1"})
	seedListing(t, repo, domain.Listing{ID: "l2"})

	for _, id := range []string{"l1", "l2"} {
		listing, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Nil(t, listing.ShareLink)
	}
}

func TestFindByShareLinkEmptyToken(t *testing.T) {
	repo := NewMemoryListingRepository()
	// A listing without a share link must not be reachable via the
	// empty token.
	seedListing(t, repo, domain.Listing{ID: "l1"})

	_, err := repo.FindByShareLink(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindAllConjunctiveFilter(t *testing.T) {
	repo := NewMemoryListingRepository()
	seedListing(t, repo, domain.Listing{ID: "l1", Title: "Vintage Lamp", Description: "brass", Category: domain.CategoryHome})
	seedListing(t, repo, domain.Listing{ID: "l2", Title: "Lamp Shade", Description: "fabric", Category: domain.CategoryOther})
	seedListing(t, repo, domain.Listing{ID: "l3", Title: "Bookshelf", Description: "oak, fits a lamp on top", Category: domain.CategoryHome})

	// Free text alone matches titles and descriptions, case-insensitive.
	result, err := repo.FindAll(context.Background(), domain.ListingFilter{Query: "LAMP"})
	require.NoError(t, err)
	assert.Len(t, result, 3)

	// Constraints compose conjunctively.
	result, err = repo.FindAll(context.Background(), domain.ListingFilter{Query: "lamp", Category: domain.CategoryHome})
	require.NoError(t, err)
	require.Len(t, result, 2)
	for _, l := range result {
		assert.Equal(t, domain.CategoryHome, l.Category)
	}

	// Empty filter returns everything.
	result, err = repo.FindAll(context.Background(), domain.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestActivityLedgerOrder(t *testing.T) {
	repo := NewMemoryActivityRepository()

	for _, typ := range []domain.ActivityType{domain.ActivityListingAdded, domain.ActivityListingShared, domain.ActivitySale} {
		require.NoError(t, repo.Append(context.Background(), &domain.Activity{Type: typ, Description: string(typ)}))
	}

	recent, err := repo.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Newest first.
	assert.Equal(t, domain.ActivitySale, recent[0].Type)
	assert.Equal(t, domain.ActivityListingShared, recent[1].Type)
}

func TestActivityAppendAssignsIdentity(t *testing.T) {
	repo := NewMemoryActivityRepository()

	a := &domain.Activity{Type: domain.ActivityView, Description: "view"}
	require.NoError(t, repo.Append(context.Background(), a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.Timestamp.IsZero())
}
