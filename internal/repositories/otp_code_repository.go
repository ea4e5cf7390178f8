package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

type OTPCodeRepository interface {
	// Replace invalidates every unused code for phone and stores a new one.
	Replace(ctx context.Context, phone, codeHash string, expiresAt time.Time) error
	// FindValid returns the newest unused, unexpired code matching the hash.
	FindValid(ctx context.Context, phone, codeHash string, now time.Time) (*models.OTPCode, error)
	// Consume marks the code used. It reports false if another request won.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

type otpCodeRepository struct {
	db *gorm.DB
}

func NewOTPCodeRepository(db *gorm.DB) OTPCodeRepository {
	return &otpCodeRepository{db: db}
}

// Replace runs in one transaction holding the phone's login_attempts row
// lock, so concurrent issuances for a phone are serialized and at most one
// unused code survives.
func (r *otpCodeRepository) Replace(ctx context.Context, phone, codeHash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var attempt models.LoginAttempt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("phone = ?", phone).
			Take(&attempt).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Model(&models.OTPCode{}).
			Where("phone = ? AND used = ?", phone, false).
			Update("used", true).Error; err != nil {
			return err
		}

		return tx.Create(&models.OTPCode{
			Phone:     phone,
			CodeHash:  codeHash,
			ExpiresAt: expiresAt,
			Used:      false,
		}).Error
	})
}

func (r *otpCodeRepository) FindValid(ctx context.Context, phone, codeHash string, now time.Time) (*models.OTPCode, error) {
	var code models.OTPCode
	err := r.db.WithContext(ctx).
		Where("phone = ? AND code_hash = ? AND used = ? AND expires_at >= ?", phone, codeHash, false, now).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &code, nil
}

func (r *otpCodeRepository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.OTPCode{}).
		Where("id = ? AND used = ?", id, false).
		Update("used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *otpCodeRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("used = ? OR expires_at < ?", true, now).
		Delete(&models.OTPCode{})
	return res.RowsAffected, res.Error
}
