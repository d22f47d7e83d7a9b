package domain

import (
	"context"
	"time"
)

// MaxImages bounds the number of image URLs a listing may carry.
const MaxImages = 5

type ListingStatus string

const (
	StatusActive   ListingStatus = "active"
	StatusSold     ListingStatus = "sold"
	StatusArchived ListingStatus = "archived"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSold, StatusArchived:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityShared  Visibility = "shared"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityShared, VisibilityPrivate:
		return true
	}
	return false
}

type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryClothing    Category = "clothing"
	CategoryHome        Category = "home"
	CategoryBooks       Category = "books"
	CategorySports      Category = "sports"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryHome, CategoryBooks, CategorySports, CategoryOther:
		return true
	}
	return false
}

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Listing represents a sellable item record. Prices are stored in minor
// units (cents) to avoid floating point error. ShareLink is nil until a
// token is issued: unissued listings persist NULL, which the unique
// index treats as distinct.
type Listing struct {
	ID                       string        `json:"id" gorm:"primaryKey"`
	OwnerID                  string        `json:"ownerId" gorm:"index;not null"`
	Title                    string        `json:"title" gorm:"not null"`
	Description              string        `json:"description" gorm:"not null"`
	PriceCents               int64         `json:"price" gorm:"not null"`
	Category                 Category      `json:"category" gorm:"index;not null"`
	Condition                Condition     `json:"condition" gorm:"not null"`
	Visibility               Visibility    `json:"visibility" gorm:"index;not null"`
	Images                   []string      `json:"images" gorm:"serializer:json"`
	Status                   ListingStatus `json:"status" gorm:"index;default:'active'"`
	Views                    int64         `json:"views" gorm:"default:0"`
	ShippingOffered          bool          `json:"shippingOffered" gorm:"default:false"`
	LocalPickup              bool          `json:"localPickup" gorm:"default:false"`
	ShareLink                *string       `json:"shareLink,omitempty" gorm:"uniqueIndex"`
	InvitedEmails            []string      `json:"invitedEmails,omitempty" gorm:"serializer:json"`
	AllowFacebookConnections bool          `json:"allowFacebookConnections" gorm:"default:false"`
	DeliveryMethod           string        `json:"deliveryMethod,omitempty"`
	DeliveryStatus           string        `json:"deliveryStatus,omitempty"`
	TrackingNumber           string        `json:"trackingNumber,omitempty"`
	DeliveryAddress          string        `json:"deliveryAddress,omitempty"`
	DeliveryNotes            string        `json:"deliveryNotes,omitempty"`
	CreatedAt                time.Time     `json:"createdAt"`
	UpdatedAt                time.Time     `json:"updatedAt"`
}

// TableName specifies the table name
func (Listing) TableName() string {
	return "listings"
}

// ShareTokenMatches reports whether token equals the issued share link.
// An unissued listing matches nothing, not even the empty token.
func (l *Listing) ShareTokenMatches(token string) bool {
	return token != "" && l.ShareLink != nil && *l.ShareLink == token
}

// IsInvited reports whether an email is on the listing's invitation list.
// Matching is case-insensitive; invited emails are stored lowercased.
func (l *Listing) IsInvited(email string) bool {
	if email == "" {
		return false
	}
	needle := NormalizeEmail(email)
	for _, invited := range l.InvitedEmails {
		if NormalizeEmail(invited) == needle {
			return true
		}
	}
	return false
}

// ListingPatch carries a partial update. Nil fields are left untouched;
// present fields are validated individually before the merge.
type ListingPatch struct {
	Title                    *string
	Description              *string
	PriceCents               *int64
	Category                 *Category
	Condition                *Condition
	Visibility               *Visibility
	Images                   *[]string
	ShippingOffered          *bool
	LocalPickup              *bool
	InvitedEmails            *[]string
	AllowFacebookConnections *bool
	DeliveryMethod           *string
	DeliveryStatus           *string
	TrackingNumber           *string
	DeliveryAddress          *string
	DeliveryNotes            *string
}

// Apply merges the patch's present fields into the listing. Fields a
// patch never carries (status, views, share link) are left alone.
func (p ListingPatch) Apply(l *Listing) {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.PriceCents != nil {
		l.PriceCents = *p.PriceCents
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Condition != nil {
		l.Condition = *p.Condition
	}
	if p.Visibility != nil {
		l.Visibility = *p.Visibility
	}
	if p.Images != nil {
		l.Images = *p.Images
	}
	if p.ShippingOffered != nil {
		l.ShippingOffered = *p.ShippingOffered
	}
	if p.LocalPickup != nil {
		l.LocalPickup = *p.LocalPickup
	}
	if p.InvitedEmails != nil {
		l.InvitedEmails = *p.InvitedEmails
	}
	if p.AllowFacebookConnections != nil {
		l.AllowFacebookConnections = *p.AllowFacebookConnections
	}
	if p.DeliveryMethod != nil {
		l.DeliveryMethod = *p.DeliveryMethod
	}
	if p.DeliveryStatus != nil {
		l.DeliveryStatus = *p.DeliveryStatus
	}
	if p.TrackingNumber != nil {
		l.TrackingNumber = *p.TrackingNumber
	}
	if p.DeliveryAddress != nil {
		l.DeliveryAddress = *p.DeliveryAddress
	}
	if p.DeliveryNotes != nil {
		l.DeliveryNotes = *p.DeliveryNotes
	}
}

// ListingFilter narrows a listing query. Zero values mean "no constraint";
// the populated constraints compose conjunctively.
type ListingFilter struct {
	Query      string
	Category   Category
	Visibility Visibility
}

// ListingRepository defines the contract for listing data access.
// Every mutation is a single guarded write per record, so concurrent
// edits, sales and view bumps never overwrite each other; cross-record
// operations only need snapshot-consistent reads.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByShareLink(ctx context.Context, token string) (*Listing, error)
	FindAll(ctx context.Context, filter ListingFilter) ([]Listing, error)
	FindByStatus(ctx context.Context, status ListingStatus) ([]Listing, error)

	// Update writes only the columns the patch carries and returns the
	// record as stored. Fields outside the patch (status, views, share
	// link) are never written back, so a racing sale or view increment
	// survives a concurrent edit.
	Update(ctx context.Context, id string, patch ListingPatch) (*Listing, error)

	Delete(ctx context.Context, id string) (bool, error)
	IncrementViews(ctx context.Context, id string) error

	// TransitionStatus moves a listing from one status to another in a
	// single guarded write. It reports false when the listing was not in
	// the expected source status (or does not exist).
	TransitionStatus(ctx context.Context, id string, from, to ListingStatus) (bool, error)

	// SetShareLink stores a share token only if none has been issued yet.
	// It reports false when a token already exists for the listing.
	SetShareLink(ctx context.Context, id, token string) (bool, error)
}
