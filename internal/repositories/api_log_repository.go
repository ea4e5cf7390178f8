package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

// APILogFilter narrows the audit log listing. Zero values are ignored.
type APILogFilter struct {
	Method     string
	Path       string
	StatusKind string // "success" (2xx) or "error" (>=400); StatusCode otherwise
	StatusCode int
	UserID     string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

type APILogRepository interface {
	Create(ctx context.Context, entry *models.APILog) error
	List(ctx context.Context, filter APILogFilter) ([]models.APILog, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type apiLogRepository struct {
	db *gorm.DB
}

func NewAPILogRepository(db *gorm.DB) APILogRepository {
	return &apiLogRepository{db: db}
}

func (r *apiLogRepository) Create(ctx context.Context, entry *models.APILog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *apiLogRepository) List(ctx context.Context, f APILogFilter) ([]models.APILog, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.APILog
	err := r.filtered(ctx, f).
		Preload("Student", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "phone")
		}).
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (r *apiLogRepository) filtered(ctx context.Context, f APILogFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.APILog{})
	if f.Method != "" {
		q = q.Where("method = ?", f.Method)
	}
	if f.Path != "" {
		q = q.Where("path ILIKE ?", "%"+f.Path+"%")
	}
	switch {
	case f.StatusKind == "success":
		q = q.Where("status_code >= ? AND status_code < ?", 200, 300)
	case f.StatusKind == "error":
		q = q.Where("status_code >= ?", 400)
	case f.StatusCode > 0:
		q = q.Where("status_code = ?", f.StatusCode)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.StartDate != nil {
		q = q.Where("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("created_at <= ?", *f.EndDate)
	}
	return q
}

func (r *apiLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.APILog{})
	return res.RowsAffected, res.Error
}
