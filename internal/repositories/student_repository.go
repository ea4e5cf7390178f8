package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

type StudentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error)
	GetByPhone(ctx context.Context, phone string) (*models.Student, error)
	Search(ctx context.Context, query string, limit int) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	ReplaceCourses(ctx context.Context, id uuid.UUID, courseIDs []uuid.UUID) error
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	ListByPhones(ctx context.Context, phones []string) ([]models.Student, error)
}

// GormStudentRepository implements StudentRepository using GORM.
type GormStudentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) *GormStudentRepository {
	return &GormStudentRepository{db: db}
}

// GetByID returns nil, nil when the student does not exist.
func (r *GormStudentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

// GetByPhone returns nil, nil when no student has the phone.
func (r *GormStudentRepository) GetByPhone(ctx context.Context, phone string) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &student, nil
}

func (r *GormStudentRepository) Search(ctx context.Context, query string, limit int) ([]models.Student, error) {
	var students []models.Student
	tx := r.db.WithContext(ctx).
		Select("id", "name", "phone", "email", "group_name", "is_admin", "coins").
		Order("name ASC").
		Limit(limit)
	if query != "" {
		like := "%" + query + "%"
		tx = tx.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if err := tx.Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *GormStudentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *GormStudentRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).Updates(fields).Error
}

func (r *GormStudentRepository) ReplaceCourses(ctx context.Context, id uuid.UUID, courseIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.StudentCourse{}).Error; err != nil {
			return err
		}
		if len(courseIDs) == 0 {
			return nil
		}
		rows := make([]models.StudentCourse, 0, len(courseIDs))
		for _, courseID := range courseIDs {
			rows = append(rows, models.StudentCourse{StudentID: id, CourseID: courseID})
		}
		return tx.Create(&rows).Error
	})
}

func (r *GormStudentRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Where("phone = ?", phone).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByPhones returns the students owning any of phones, with id, name and
// phone loaded.
func (r *GormStudentRepository) ListByPhones(ctx context.Context, phones []string) ([]models.Student, error) {
	students := []models.Student{}
	if len(phones) == 0 {
		return students, nil
	}
	err := r.db.WithContext(ctx).
		Select("id", "name", "phone").
		Where("phone IN ?", phones).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}
