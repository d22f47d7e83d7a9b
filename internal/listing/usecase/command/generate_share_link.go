package command

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/tair/marketplace/internal/listing/domain"
)

const (
	shareTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	shareTokenLength   = 12
)

// GenerateShareLinkCommand represents the command to issue a share token
type GenerateShareLinkCommand struct {
	ID string
}

// GenerateShareLinkHandler issues an unguessable share token for a
// listing. A token is issued exactly once: repeated calls return the
// existing token, and only the first issuance appends a listing_shared
// activity.
type GenerateShareLinkHandler struct {
	listings   domain.ListingRepository
	activities domain.ActivityRepository
}

func NewGenerateShareLinkHandler(listings domain.ListingRepository, activities domain.ActivityRepository) *GenerateShareLinkHandler {
	return &GenerateShareLinkHandler{listings: listings, activities: activities}
}

func (h *GenerateShareLinkHandler) Handle(ctx context.Context, cmd GenerateShareLinkCommand) (string, error) {
	listing, err := h.listings.FindByID(ctx, cmd.ID)
	if err != nil {
		return "", err
	}

	if listing.ShareLink != nil {
		return *listing.ShareLink, nil
	}

	token, err := newShareToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate share token: %w", err)
	}

	issued, err := h.listings.SetShareLink(ctx, cmd.ID, token)
	if err != nil {
		return "", fmt.Errorf("failed to store share token: %w", err)
	}
	if !issued {
		// Lost the race; another caller issued the token first.
		current, err := h.listings.FindByID(ctx, cmd.ID)
		if err != nil {
			return "", err
		}
		if current.ShareLink == nil {
			return "", fmt.Errorf("share token missing after lost issuance race for listing %s", cmd.ID)
		}
		return *current.ShareLink, nil
	}

	if err := h.activities.Append(ctx, &domain.Activity{
		Type:        domain.ActivityListingShared,
		Description: "Listing shared via link",
		ListingID:   listing.ID,
	}); err != nil {
		return "", fmt.Errorf("failed to record share activity: %w", err)
	}

	return token, nil
}

// newShareToken returns a random base62 token of 12 characters, which
// carries ~71 bits of entropy.
func newShareToken() (string, error) {
	token := make([]byte, shareTokenLength)
	max := big.NewInt(int64(len(shareTokenAlphabet)))
	for i := range token {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		token[i] = shareTokenAlphabet[n.Int64()]
	}
	return string(token), nil
}
