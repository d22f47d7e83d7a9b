package invitation

import (
	"context"
	"fmt"

	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/pkg/logger"
)

const descriptionPreviewLen = 200

// Sender is the email collaborator contract. The gateway never retries;
// retry policy, if any, belongs to the collaborator.
type Sender interface {
	Send(to, subject, body string) error
}

// Result counts the outcome of an invitation batch
type Result struct {
	Sent   int
	Failed int
}

// Gateway bridges a private listing's invitation list to the email
// collaborator. Delivery failures never propagate: listing creation
// succeeds even if zero of N invitations send.
type Gateway struct {
	sender     Sender
	activities domain.ActivityRepository
	baseURL    string
}

func NewGateway(sender Sender, activities domain.ActivityRepository, baseURL string) *Gateway {
	return &Gateway{sender: sender, activities: activities, baseURL: baseURL}
}

// DispatchInvitations sends one invitation per invited email and records
// a best-effort email_sent activity with the sent/failed counts. It is
// called after the listing mutation has committed, outside any lock.
func (g *Gateway) DispatchInvitations(ctx context.Context, listing *domain.Listing) Result {
	var result Result

	if g.sender == nil || listing == nil || len(listing.InvitedEmails) == 0 {
		return result
	}

	subject := fmt.Sprintf("You're invited to view: %s", listing.Title)
	body := g.buildBody(listing)

	for _, to := range listing.InvitedEmails {
		if err := g.sender.Send(to, subject, body); err != nil {
			result.Failed++
			depErr := domain.NewDependencyError("email", err)
			logger.Warn(ctx).Err(depErr).
				Str("listing_id", listing.ID).
				Str("recipient", to).
				Msg("Invitation email failed")
			continue
		}
		result.Sent++
	}

	logger.Info(ctx).
		Str("listing_id", listing.ID).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Msg("Invitation batch dispatched")

	if g.activities != nil {
		if err := g.activities.Append(ctx, &domain.Activity{
			Type:        domain.ActivityEmailSent,
			Description: fmt.Sprintf("Invitations sent for %s: %d delivered, %d failed", listing.Title, result.Sent, result.Failed),
			ListingID:   listing.ID,
		}); err != nil {
			logger.Warn(ctx).Err(err).
				Str("listing_id", listing.ID).
				Msg("Failed to record email_sent activity")
		}
	}

	return result
}

func (g *Gateway) buildBody(listing *domain.Listing) string {
	preview := listing.Description
	if len(preview) > descriptionPreviewLen {
		preview = preview[:descriptionPreviewLen] + "..."
	}

	return fmt.Sprintf(
		"You've been invited to view a private listing:\n\n"+
			"%s\nPrice: $%.2f\n\n%s\n\n"+
			"View the listing here: %s/listings/%s\n\n"+
			"This is a private invitation. Please don't share this link with others.",
		listing.Title,
		float64(listing.PriceCents)/100,
		preview,
		g.baseURL,
		listing.ID,
	)
}
