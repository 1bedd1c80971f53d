package repository

import (
	"context"
	"time"

	"tradehub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VouchStats is the raw aggregate the credibility score is computed from.
type VouchStats struct {
	Count int64
	Sum   int64
}

// VouchRepository defines persistence operations for vouches.
type VouchRepository interface {
	// Upsert creates the voucher's vouch for the target or replaces its rating.
	Upsert(ctx context.Context, vouch *models.Vouch) error
	ListForUser(ctx context.Context, targetID uint, page models.PageRequest) ([]models.Vouch, int64, error)
	Stats(ctx context.Context, targetID uint) (VouchStats, error)
}

type vouchRepository struct {
	db *gorm.DB
}

// NewVouchRepository creates a new vouch repository
func NewVouchRepository(db *gorm.DB) VouchRepository {
	return &vouchRepository{db: db}
}

func (r *vouchRepository) Upsert(ctx context.Context, vouch *models.Vouch) error {
	vouch.UpdatedAt = time.Now().UTC()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "voucher_id"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(vouch).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *vouchRepository) ListForUser(ctx context.Context, targetID uint, page models.PageRequest) ([]models.Vouch, int64, error) {
	page = page.Normalize()
	query := r.db.WithContext(ctx).Model(&models.Vouch{}).Where("target_id = ?", targetID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var vouches []models.Vouch
	if err := query.Preload("Voucher").
		Order("updated_at DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&vouches).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return vouches, total, nil
}

func (r *vouchRepository) Stats(ctx context.Context, targetID uint) (VouchStats, error) {
	var stats VouchStats
	err := r.db.WithContext(ctx).Model(&models.Vouch{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS sum").
		Where("target_id = ?", targetID).
		Scan(&stats).Error
	if err != nil {
		return VouchStats{}, models.NewInternalError(err)
	}
	return stats, nil
}
