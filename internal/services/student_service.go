package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/repositories"
)

const (
	studentSearchLimit = 50
	msgPhoneTaken      = "Student with this phone already exists"
)

var studentSchema = FieldSchema{
	"name":       {Kind: KindString},
	"phone":      {Kind: KindString},
	"email":      {Kind: KindString, Nullable: true},
	"group_name": {Kind: KindString, Nullable: true},
	"is_admin":   {Kind: KindBool},
	"coins":      {Kind: KindInt},
}

type StudentInput struct {
	Name      string   `json:"name"`
	Phone     string   `json:"phone"`
	Email     *string  `json:"email"`
	GroupName *string  `json:"group_name"`
	IsAdmin   bool     `json:"is_admin"`
	Coins     int      `json:"coins"`
	CourseIDs []string `json:"course_ids"`
}

// StudentService is the admin back office for student records.
type StudentService struct {
	students repositories.StudentRepository
}

func NewStudentService(students repositories.StudentRepository) *StudentService {
	return &StudentService{students: students}
}

func (s *StudentService) Search(ctx context.Context, query string) ([]models.Student, error) {
	students, err := s.students.Search(ctx, strings.TrimSpace(query), studentSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

func (s *StudentService) Create(ctx context.Context, in StudentInput) (*models.Student, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, invalid("Name and phone are required")
	}
	phone, err := NormalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}
	courseIDs, err := parseIDList("course_ids", in.CourseIDs)
	if err != nil {
		return nil, err
	}
	if err := s.ensurePhoneFree(ctx, phone, uuid.Nil); err != nil {
		return nil, err
	}

	student := &models.Student{
		Name:      name,
		Phone:     phone,
		Email:     optionalString(in.Email),
		GroupName: optionalString(in.GroupName),
		IsAdmin:   in.IsAdmin,
		Coins:     in.Coins,
	}
	if err := s.students.Create(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid(msgPhoneTaken)
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	if len(courseIDs) > 0 {
		if err := s.students.ReplaceCourses(ctx, student.ID, courseIDs); err != nil {
			return nil, fmt.Errorf("assign courses: %w", err)
		}
	}
	return student, nil
}

// Update writes the whitelisted fields of raw. A course_ids key replaces the
// enrollment, an empty list removes it.
func (s *StudentService) Update(ctx context.Context, rawID string, raw map[string]any) (*models.Student, error) {
	id, err := parseID(rawID, ErrStudentNotFound.Message)
	if err != nil {
		return nil, err
	}
	var courseIDs []string
	hasCourses, err := takeRelation(raw, "course_ids", &courseIDs)
	if err != nil {
		return nil, err
	}
	ids, err := parseIDList("course_ids", courseIDs)
	if err != nil {
		return nil, err
	}
	fields, err := ApplyUpdate(studentSchema, raw)
	if err != nil {
		return nil, err
	}

	existing, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if existing == nil {
		return nil, ErrStudentNotFound
	}

	if name, ok := fields["name"].(string); ok {
		if name = strings.TrimSpace(name); name == "" {
			return nil, invalid("Name is required")
		}
		fields["name"] = name
	}
	if rawPhone, ok := fields["phone"].(string); ok {
		phone, err := NormalizePhone(rawPhone)
		if err != nil {
			return nil, err
		}
		if err := s.ensurePhoneFree(ctx, phone, id); err != nil {
			return nil, err
		}
		fields["phone"] = phone
	}

	if err := s.students.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid(msgPhoneTaken)
		}
		return nil, fmt.Errorf("update student: %w", err)
	}
	if hasCourses {
		if err := s.students.ReplaceCourses(ctx, id, ids); err != nil {
			return nil, fmt.Errorf("assign courses: %w", err)
		}
	}

	updated, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if updated == nil {
		return nil, ErrStudentNotFound
	}
	return updated, nil
}

func (s *StudentService) ensurePhoneFree(ctx context.Context, phone string, self uuid.UUID) error {
	owner, err := s.students.GetByPhone(ctx, phone)
	if err != nil {
		return fmt.Errorf("check phone: %w", err)
	}
	if owner != nil && owner.ID != self {
		return invalid(msgPhoneTaken)
	}
	return nil
}
