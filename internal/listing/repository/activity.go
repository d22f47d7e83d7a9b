package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tair/marketplace/internal/listing/domain"
)

type GormActivityRepository struct {
	db *gorm.DB
}

func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Append assigns the ID and timestamp at write time. The ledger has no
// update or delete path.
func (r *GormActivityRepository) Append(ctx context.Context, activity *domain.Activity) error {
	activity.ID = uuid.NewString()
	activity.Timestamp = time.Now()
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *GormActivityRepository) Recent(ctx context.Context, limit int) ([]domain.Activity, error) {
	tx := r.db.WithContext(ctx).Model(&domain.Activity{}).Order("timestamp DESC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}

	var activities []domain.Activity
	err := tx.Find(&activities).Error
	return activities, err
}
