package repository

import (
	"context"
	"time"

	"tradehub/internal/models"

	"gorm.io/gorm"
)

// SessionRepository tracks issued credentials.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenID(ctx context.Context, tokenID string) (*models.Session, error)
	DeleteByTokenID(ctx context.Context, tokenID string) error
	// DeleteByUser removes every session of userID and returns the removed rows.
	DeleteByUser(ctx context.Context, userID uint) ([]models.Session, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) GetByTokenID(ctx context.Context, tokenID string) (*models.Session, error) {
	var session models.Session
	if err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).Take(&session).Error; err != nil {
		return nil, translateReadError(err, "Session", tokenID)
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByTokenID(ctx context.Context, tokenID string) error {
	if err := r.db.WithContext(ctx).Where("token_id = ?", tokenID).Delete(&models.Session{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *sessionRepository) DeleteByUser(ctx context.Context, userID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Find(&sessions).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return sessions, nil
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Session{})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
