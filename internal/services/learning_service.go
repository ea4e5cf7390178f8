package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

const (
	msgTechnologyNotFound = "Technology not found"
	msgTopicNotFound      = "Topic not found"
)

var technologySchema = FieldSchema{
	"course_id":   {Kind: KindUUID, Nullable: true},
	"name":        {Kind: KindString},
	"slug":        {Kind: KindString},
	"description": {Kind: KindString, Nullable: true},
	"icon":        {Kind: KindString, Nullable: true},
	"order_index": {Kind: KindInt},
	"is_active":   {Kind: KindBool},
}

var topicSchema = FieldSchema{
	"technology_id": {Kind: KindUUID},
	"name":          {Kind: KindString},
	"slug":          {Kind: KindString},
	"description":   {Kind: KindString, Nullable: true},
	"content":       {Kind: KindString, Nullable: true},
	"duration":      {Kind: KindInt},
	"theory_video":  {Kind: KindString, Nullable: true},
	"miro_link":     {Kind: KindString, Nullable: true},
	"order_index":   {Kind: KindInt},
	"is_active":     {Kind: KindBool},
}

type TechnologyInput struct {
	CourseID    *string `json:"course_id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	OrderIndex  int     `json:"order_index"`
	IsActive    *bool   `json:"is_active"`
}

type TopicInput struct {
	TechnologyID string  `json:"technology_id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Description  *string `json:"description"`
	Content      *string `json:"content"`
	Duration     int     `json:"duration"`
	TheoryVideo  *string `json:"theory_video"`
	MiroLink     *string `json:"miro_link"`
	OrderIndex   int     `json:"order_index"`
	IsActive     *bool   `json:"is_active"`
}

// LearningService serves the technologies and topics of the course
// curriculum.
type LearningService struct {
	db *gorm.DB
}

func NewLearningService(db *gorm.DB) *LearningService {
	return &LearningService{db: db}
}

func (s *LearningService) technologies(ctx context.Context, includeInactive bool) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Course").
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			if !includeInactive {
				db = db.Where("is_active = ?", true)
			}
			return db.Order("topics.order_index ASC")
		})
}

// ListTechnologies filters by course when courseID is set. A malformed
// course id matches nothing.
func (s *LearningService) ListTechnologies(ctx context.Context, courseID string, includeInactive bool) ([]models.Technology, error) {
	techs := []models.Technology{}
	q := s.technologies(ctx, includeInactive).Order("order_index ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if courseID = strings.TrimSpace(courseID); courseID != "" {
		id, err := uuid.Parse(courseID)
		if err != nil {
			return techs, nil
		}
		q = q.Where("course_id = ?", id)
	}
	if err := q.Find(&techs).Error; err != nil {
		return nil, fmt.Errorf("list technologies: %w", err)
	}
	return techs, nil
}

func (s *LearningService) GetTechnology(ctx context.Context, rawID string, includeInactive bool) (*models.Technology, error) {
	id, err := parseID(rawID, msgTechnologyNotFound)
	if err != nil {
		return nil, err
	}
	var tech models.Technology
	found, err := takeOne(s.technologies(ctx, includeInactive).Where("id = ?", id), &tech)
	if err != nil {
		return nil, fmt.Errorf("load technology: %w", err)
	}
	if !found || (!tech.IsActive && !includeInactive) {
		return nil, notFound(msgTechnologyNotFound)
	}
	return &tech, nil
}

func (s *LearningService) CreateTechnology(ctx context.Context, in TechnologyInput) (*models.Technology, error) {
	name, err := requireString(in.Name, "Name is required")
	if err != nil {
		return nil, err
	}
	tech := &models.Technology{
		Name:        name,
		Slug:        strings.TrimSpace(in.Slug),
		Description: optionalString(in.Description),
		Icon:        optionalString(in.Icon),
		OrderIndex:  in.OrderIndex,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if c := optionalString(in.CourseID); c != nil {
		id, err := uuid.Parse(*c)
		if err != nil {
			return nil, invalid("Invalid value for course_id: expected uuid")
		}
		tech.CourseID = &id
	}
	if err := s.db.WithContext(ctx).Omit("Course", "Topics").Create(tech).Error; err != nil {
		return nil, slugConflict(err, "create technology")
	}
	return s.GetTechnology(ctx, tech.ID.String(), true)
}

func (s *LearningService) UpdateTechnology(ctx context.Context, rawID string, raw map[string]any) (*models.Technology, error) {
	tech, err := s.GetTechnology(ctx, rawID, true)
	if err != nil {
		return nil, err
	}
	fields, err := ApplyUpdate(technologySchema, raw)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Technology{}).Where("id = ?", tech.ID).Updates(fields).Error; err != nil {
			return nil, slugConflict(err, "update technology")
		}
	}
	return s.GetTechnology(ctx, rawID, true)
}

// DeleteTechnology removes the technology; its topics cascade.
func (s *LearningService) DeleteTechnology(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgTechnologyNotFound)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Technology{})
	if res.Error != nil {
		return fmt.Errorf("delete technology: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(msgTechnologyNotFound)
	}
	return nil
}

func (s *LearningService) topics(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Technology.Course")
}

func (s *LearningService) ListTopics(ctx context.Context, technologyID string, includeInactive bool) ([]models.Topic, error) {
	topics := []models.Topic{}
	q := s.topics(ctx).Order("order_index ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if technologyID = strings.TrimSpace(technologyID); technologyID != "" {
		id, err := uuid.Parse(technologyID)
		if err != nil {
			return topics, nil
		}
		q = q.Where("technology_id = ?", id)
	}
	if err := q.Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

func (s *LearningService) GetTopic(ctx context.Context, rawID string, includeInactive bool) (*models.Topic, error) {
	id, err := parseID(rawID, msgTopicNotFound)
	if err != nil {
		return nil, err
	}
	var topic models.Topic
	found, err := takeOne(s.topics(ctx).Where("id = ?", id), &topic)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	if !found || (!topic.IsActive && !includeInactive) {
		return nil, notFound(msgTopicNotFound)
	}
	return &topic, nil
}

func (s *LearningService) CreateTopic(ctx context.Context, in TopicInput) (*models.Topic, error) {
	name, err := requireString(in.Name, "Name is required")
	if err != nil {
		return nil, err
	}
	techID, err := uuid.Parse(strings.TrimSpace(in.TechnologyID))
	if err != nil {
		return nil, invalid("Technology is required")
	}
	var tech models.Technology
	found, err := takeOne(s.db.WithContext(ctx).Select("id").Where("id = ?", techID), &tech)
	if err != nil {
		return nil, fmt.Errorf("load technology: %w", err)
	}
	if !found {
		return nil, notFound(msgTechnologyNotFound)
	}

	topic := &models.Topic{
		TechnologyID: techID,
		Name:         name,
		Slug:         strings.TrimSpace(in.Slug),
		Description:  optionalString(in.Description),
		Content:      in.Content,
		Duration:     in.Duration,
		TheoryVideo:  optionalString(in.TheoryVideo),
		MiroLink:     optionalString(in.MiroLink),
		OrderIndex:   in.OrderIndex,
		IsActive:     in.IsActive == nil || *in.IsActive,
	}
	if err := s.db.WithContext(ctx).Omit("Technology").Create(topic).Error; err != nil {
		return nil, slugConflict(err, "create topic")
	}
	return s.GetTopic(ctx, topic.ID.String(), true)
}

func (s *LearningService) UpdateTopic(ctx context.Context, rawID string, raw map[string]any) (*models.Topic, error) {
	topic, err := s.GetTopic(ctx, rawID, true)
	if err != nil {
		return nil, err
	}
	fields, err := ApplyUpdate(topicSchema, raw)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Topic{}).Where("id = ?", topic.ID).Updates(fields).Error; err != nil {
			return nil, slugConflict(err, "update topic")
		}
	}
	return s.GetTopic(ctx, rawID, true)
}

func (s *LearningService) DeleteTopic(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgTopicNotFound)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Topic{})
	if res.Error != nil {
		return fmt.Errorf("delete topic: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(msgTopicNotFound)
	}
	return nil
}

func slugConflict(err error, op string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return invalid("Slug is already in use")
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return invalid("Referenced record does not exist")
	}
	return fmt.Errorf("%s: %w", op, err)
}
