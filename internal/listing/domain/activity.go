package domain

import (
	"context"
	"strings"
	"time"
)

type ActivityType string

const (
	ActivitySale          ActivityType = "sale"
	ActivityView          ActivityType = "view"
	ActivityListingAdded  ActivityType = "listing_added"
	ActivityListingShared ActivityType = "listing_shared"
	ActivityListingEdited ActivityType = "listing_edited"
	ActivityEmailSent     ActivityType = "email_sent"
)

// Activity is an append-only audit log entry for a domain event. Records
// are never mutated or deleted; ListingID is a weak reference and may
// outlive the listing it points to.
type Activity struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Type        ActivityType `json:"type" gorm:"index;not null"`
	Description string       `json:"description" gorm:"not null"`
	ListingID   string       `json:"listingId,omitempty" gorm:"index"`
	AmountCents *int64       `json:"amount,omitempty"`
	Timestamp   time.Time    `json:"timestamp" gorm:"index"`
}

// TableName specifies the table name
func (Activity) TableName() string {
	return "activities"
}

// ActivityRepository defines the contract for the activity ledger.
// Append assigns the ID and timestamp at write time (server clock, never
// client-supplied). There is no update or delete operation.
type ActivityRepository interface {
	Append(ctx context.Context, activity *Activity) error

	// Recent returns activities sorted descending by timestamp, capped at
	// limit when limit > 0.
	Recent(ctx context.Context, limit int) ([]Activity, error)
}

// NormalizeEmail lowercases and trims an email address for comparison
// and storage on invitation lists.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
