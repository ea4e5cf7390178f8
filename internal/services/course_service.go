package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

const msgCourseNotFound = "Course not found"

var courseSchema = FieldSchema{
	"name": {Kind: KindString},
	"slug": {Kind: KindString},
}

type CourseInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CourseService struct {
	db *gorm.DB
}

func NewCourseService(db *gorm.DB) *CourseService {
	return &CourseService{db: db}
}

func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses := []models.Course{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&courses).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *CourseService) Create(ctx context.Context, in CourseInput) (*models.Course, error) {
	name, err := requireString(in.Name, "Name is required")
	if err != nil {
		return nil, err
	}
	course := &models.Course{Name: name, Slug: models.Slugify(in.Slug)}
	if strings.TrimSpace(in.Slug) == "" {
		course.Slug = models.Slugify(name)
	}
	if err := s.db.WithContext(ctx).Create(course).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalid("Course with this slug already exists")
		}
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, rawID string, raw map[string]any) (*models.Course, error) {
	course, err := s.get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	fields, err := ApplyUpdate(courseSchema, raw)
	if err != nil {
		return nil, err
	}
	if slug, ok := fields["slug"].(string); ok {
		fields["slug"] = models.Slugify(slug)
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(course).Updates(fields).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, invalid("Course with this slug already exists")
			}
			return nil, fmt.Errorf("update course: %w", err)
		}
	}
	return s.get(ctx, rawID)
}

func (s *CourseService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgCourseNotFound)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Course{})
	if res.Error != nil {
		return fmt.Errorf("delete course: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(msgCourseNotFound)
	}
	return nil
}

func (s *CourseService) get(ctx context.Context, rawID string) (*models.Course, error) {
	id, err := parseID(rawID, msgCourseNotFound)
	if err != nil {
		return nil, err
	}
	var course models.Course
	found, err := takeOne(s.db.WithContext(ctx).Where("id = ?", id), &course)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if !found {
		return nil, notFound(msgCourseNotFound)
	}
	return &course, nil
}
