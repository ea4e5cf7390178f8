package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

const msgSkillNotFound = "Skill not found"

var skillSchema = FieldSchema{
	"name":        {Kind: KindString},
	"description": {Kind: KindString, Nullable: true},
	"icon":        {Kind: KindString, Nullable: true},
	"is_active":   {Kind: KindBool},
}

type SkillInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	IsActive    *bool   `json:"is_active"`
}

type SkillService struct {
	db *gorm.DB
}

func NewSkillService(db *gorm.DB) *SkillService {
	return &SkillService{db: db}
}

func (s *SkillService) List(ctx context.Context, includeInactive bool) ([]models.Skill, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	skills := []models.Skill{}
	if err := q.Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return skills, nil
}

func (s *SkillService) Get(ctx context.Context, rawID string) (*models.Skill, error) {
	id, err := parseID(rawID, msgSkillNotFound)
	if err != nil {
		return nil, err
	}
	var skill models.Skill
	found, err := takeOne(s.db.WithContext(ctx).Where("id = ?", id), &skill)
	if err != nil {
		return nil, fmt.Errorf("load skill: %w", err)
	}
	if !found {
		return nil, notFound(msgSkillNotFound)
	}
	return &skill, nil
}

func (s *SkillService) Create(ctx context.Context, in SkillInput) (*models.Skill, error) {
	name, err := requireString(in.Name, "Name is required")
	if err != nil {
		return nil, err
	}
	skill := &models.Skill{
		Name:        name,
		Description: optionalString(in.Description),
		Icon:        optionalString(in.Icon),
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.db.WithContext(ctx).Create(skill).Error; err != nil {
		return nil, fmt.Errorf("create skill: %w", err)
	}
	return skill, nil
}

func (s *SkillService) Update(ctx context.Context, rawID string, raw map[string]any) (*models.Skill, error) {
	skill, err := s.Get(ctx, rawID)
	if err != nil {
		return nil, err
	}
	fields, err := ApplyUpdate(skillSchema, raw)
	if err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.db.WithContext(ctx).Model(skill).Updates(fields).Error; err != nil {
			return nil, fmt.Errorf("update skill: %w", err)
		}
	}
	return s.Get(ctx, rawID)
}

// Delete removes every student's level for the skill, then the skill.
func (s *SkillService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgSkillNotFound)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("skill_id = ?", id).Delete(&models.StudentSkill{}).Error; err != nil {
			return fmt.Errorf("delete student skills: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Skill{})
		if res.Error != nil {
			return fmt.Errorf("delete skill: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return notFound(msgSkillNotFound)
		}
		return nil
	})
}
