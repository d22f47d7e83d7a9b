package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tair/marketplace/internal/listing/domain"
)

type GormListingRepository struct {
	db *gorm.DB
}

func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

func (r *GormListingRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Listing{}, &domain.Activity{})
}

func (r *GormListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *GormListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var listing domain.Listing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *GormListingRepository) FindByShareLink(ctx context.Context, token string) (*domain.Listing, error) {
	if token == "" {
		return nil, domain.ErrNotFound
	}
	var listing domain.Listing
	err := r.db.WithContext(ctx).Where("share_link = ?", token).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *GormListingRepository) FindAll(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Listing{})

	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", filter.Category)
	}
	if filter.Visibility != "" {
		tx = tx.Where("visibility = ?", filter.Visibility)
	}

	var listings []domain.Listing
	err := tx.Order("created_at DESC").Find(&listings).Error
	return listings, err
}

func (r *GormListingRepository) FindByStatus(ctx context.Context, status domain.ListingStatus) ([]domain.Listing, error) {
	var listings []domain.Listing
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&listings).Error
	return listings, err
}

// Update issues a single UPDATE restricted to the patched columns.
// Status, views and share_link are never part of a patch, so a sale or
// view increment racing an edit is not overwritten by a stale snapshot.
func (r *GormListingRepository) Update(ctx context.Context, id string, patch domain.ListingPatch) (*domain.Listing, error) {
	var values domain.Listing
	patch.Apply(&values)
	values.UpdatedAt = time.Now()

	res := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("id = ?", id).
		Select(append(patchColumns(patch), "updated_at")).
		Updates(values)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func patchColumns(p domain.ListingPatch) []string {
	var cols []string
	if p.Title != nil {
		cols = append(cols, "title")
	}
	if p.Description != nil {
		cols = append(cols, "description")
	}
	if p.PriceCents != nil {
		cols = append(cols, "price_cents")
	}
	if p.Category != nil {
		cols = append(cols, "category")
	}
	if p.Condition != nil {
		cols = append(cols, "condition")
	}
	if p.Visibility != nil {
		cols = append(cols, "visibility")
	}
	if p.Images != nil {
		cols = append(cols, "images")
	}
	if p.ShippingOffered != nil {
		cols = append(cols, "shipping_offered")
	}
	if p.LocalPickup != nil {
		cols = append(cols, "local_pickup")
	}
	if p.InvitedEmails != nil {
		cols = append(cols, "invited_emails")
	}
	if p.AllowFacebookConnections != nil {
		cols = append(cols, "allow_facebook_connections")
	}
	if p.DeliveryMethod != nil {
		cols = append(cols, "delivery_method")
	}
	if p.DeliveryStatus != nil {
		cols = append(cols, "delivery_status")
	}
	if p.TrackingNumber != nil {
		cols = append(cols, "tracking_number")
	}
	if p.DeliveryAddress != nil {
		cols = append(cols, "delivery_address")
	}
	if p.DeliveryNotes != nil {
		cols = append(cols, "delivery_notes")
	}
	return cols
}

func (r *GormListingRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&domain.Listing{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IncrementViews bumps the view counter in a single UPDATE so concurrent
// views never lose increments.
func (r *GormListingRepository) IncrementViews(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"views":      gorm.Expr("views + 1"),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TransitionStatus performs a status-guarded UPDATE. The WHERE on the
// source status makes concurrent transitions race-safe: exactly one
// caller observes rowsAffected > 0.
func (r *GormListingRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ListingStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetShareLink stores a token only when none exists; share links are
// issued exactly once per listing. Unissued listings hold NULL, which
// keeps the unique index on share_link satisfied across rows.
func (r *GormListingRepository) SetShareLink(ctx context.Context, id, token string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Listing{}).
		Where("id = ? AND share_link IS NULL", id).
		Updates(map[string]interface{}{
			"share_link": token,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
