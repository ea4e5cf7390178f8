package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Technology groups ordered topics under a course.
type Technology struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CourseID    *uuid.UUID `gorm:"type:uuid" json:"course_id"`
	Name        string     `gorm:"not null" json:"name"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Description *string    `json:"description"`
	Icon        *string    `json:"icon"`
	OrderIndex  int        `gorm:"not null" json:"order_index"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`

	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Topics []Topic `gorm:"foreignKey:TechnologyID" json:"topics,omitempty"`
}

func (Technology) TableName() string {
	return "technologies"
}

func (t *Technology) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&t.ID)
	if t.Slug == "" {
		t.Slug = Slugify(t.Name) + "-" + t.ID.String()[:8]
	}
	return nil
}

type Topic struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TechnologyID uuid.UUID `gorm:"type:uuid;not null" json:"technology_id"`
	Name         string    `gorm:"not null" json:"name"`
	Slug         string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description  *string   `json:"description"`
	Content      *string   `json:"content"`
	Duration     int       `gorm:"not null" json:"duration"`
	TheoryVideo  *string   `json:"theory_video"`
	MiroLink     *string   `json:"miro_link"`
	OrderIndex   int       `gorm:"not null" json:"order_index"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`

	Technology *Technology `gorm:"foreignKey:TechnologyID" json:"technology,omitempty"`
}

func (Topic) TableName() string {
	return "topics"
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&t.ID)
	if t.Slug == "" {
		t.Slug = Slugify(t.Name) + "-" + t.ID.String()[:8]
	}
	return nil
}
