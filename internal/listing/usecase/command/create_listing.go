package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tair/marketplace/internal/listing/domain"
)

// CreateListingCommand represents the command to create a new listing
type CreateListingCommand struct {
	OwnerID                  string
	Title                    string
	Description              string
	PriceCents               int64
	Category                 domain.Category
	Condition                domain.Condition
	Visibility               domain.Visibility
	Images                   []string
	ShippingOffered          bool
	LocalPickup              bool
	InvitedEmails            []string
	AllowFacebookConnections bool
}

// CreateListingHandler handles listing creation
type CreateListingHandler struct {
	listings   domain.ListingRepository
	activities domain.ActivityRepository
}

func NewCreateListingHandler(listings domain.ListingRepository, activities domain.ActivityRepository) *CreateListingHandler {
	return &CreateListingHandler{listings: listings, activities: activities}
}

// Handle validates the input, persists the listing and appends a
// listing_added activity. New listings always start active with zero views.
func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*domain.Listing, error) {
	if err := validateCreate(cmd); err != nil {
		return nil, err
	}

	now := time.Now()
	listing := &domain.Listing{
		ID:                       uuid.NewString(),
		OwnerID:                  cmd.OwnerID,
		Title:                    cmd.Title,
		Description:              cmd.Description,
		PriceCents:               cmd.PriceCents,
		Category:                 cmd.Category,
		Condition:                cmd.Condition,
		Visibility:               cmd.Visibility,
		Images:                   cmd.Images,
		Status:                   domain.StatusActive,
		Views:                    0,
		ShippingOffered:          cmd.ShippingOffered,
		LocalPickup:              cmd.LocalPickup,
		InvitedEmails:            normalizeEmails(cmd.InvitedEmails),
		AllowFacebookConnections: cmd.AllowFacebookConnections,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := h.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	if err := h.activities.Append(ctx, &domain.Activity{
		Type:        domain.ActivityListingAdded,
		Description: fmt.Sprintf("New listing added: %s", listing.Title),
		ListingID:   listing.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to record listing activity: %w", err)
	}

	return listing, nil
}

func validateCreate(cmd CreateListingCommand) error {
	if cmd.OwnerID == "" {
		return domain.NewValidationError("ownerId", "is required")
	}
	if cmd.Title == "" {
		return domain.NewValidationError("title", "is required")
	}
	if cmd.Description == "" {
		return domain.NewValidationError("description", "is required")
	}
	if cmd.PriceCents < 0 {
		return domain.NewValidationError("price", "cannot be negative")
	}
	if !cmd.Category.Valid() {
		return domain.NewValidationError("category", "unknown value")
	}
	if !cmd.Condition.Valid() {
		return domain.NewValidationError("condition", "unknown value")
	}
	if !cmd.Visibility.Valid() {
		return domain.NewValidationError("visibility", "unknown value")
	}
	if len(cmd.Images) > domain.MaxImages {
		return domain.NewValidationError("images", fmt.Sprintf("at most %d images allowed", domain.MaxImages))
	}
	return nil
}

func normalizeEmails(emails []string) []string {
	if len(emails) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(emails))
	result := make([]string, 0, len(emails))
	for _, e := range emails {
		normalized := domain.NormalizeEmail(e)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}
