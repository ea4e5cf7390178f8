package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

type LoginAttemptRepository interface {
	Get(ctx context.Context, phone string) (*models.LoginAttempt, error)
	// Record upserts the row for phone. When resetWindow is set the counter
	// restarts at one.
	Record(ctx context.Context, phone string, now time.Time, resetWindow bool) error
	List(ctx context.Context) ([]models.LoginAttempt, error)
}

type loginAttemptRepository struct {
	db *gorm.DB
}

func NewLoginAttemptRepository(db *gorm.DB) LoginAttemptRepository {
	return &loginAttemptRepository{db: db}
}

func (r *loginAttemptRepository) Get(ctx context.Context, phone string) (*models.LoginAttempt, error) {
	var attempt models.LoginAttempt
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).Take(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (r *loginAttemptRepository) Record(ctx context.Context, phone string, now time.Time, resetWindow bool) error {
	updates := map[string]interface{}{
		"last_attempt_at": now,
		"attempt_count":   gorm.Expr("login_attempts.attempt_count + 1"),
	}
	if resetWindow {
		updates = map[string]interface{}{
			"last_attempt_at":  now,
			"first_attempt_at": now,
			"attempt_count":    1,
		}
	}
	row := models.LoginAttempt{
		Phone:          phone,
		AttemptCount:   1,
		FirstAttemptAt: now,
		LastAttemptAt:  now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(updates),
	}).Create(&row).Error
}

func (r *loginAttemptRepository) List(ctx context.Context) ([]models.LoginAttempt, error) {
	var attempts []models.LoginAttempt
	if err := r.db.WithContext(ctx).Order("last_attempt_at DESC").Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}
