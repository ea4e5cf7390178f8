package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Job struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title         string    `gorm:"not null" json:"title"`
	Company       string    `gorm:"not null" json:"company"`
	Location      *string   `json:"location"`
	Type          *string   `json:"type"`
	Salary        *string   `json:"salary"`
	Category      *string   `json:"category"`
	OpenPositions *int      `json:"open_positions"`
	Description   *string   `json:"description"`
	Requirements  *string   `json:"requirements"`
	ContactEmail  *string   `json:"contact_email"`
	ContactPhone  *string   `json:"contact_phone"`
	ApplyURL      *string   `gorm:"column:apply_url" json:"apply_url"`
	CoinsRequired int       `gorm:"not null" json:"coins_required"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Courses           []Course              `gorm:"many2many:job_courses" json:"courses"`
	SkillRequirements []JobSkillRequirement `gorm:"foreignKey:JobID" json:"skill_requirements"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&j.ID)
	return nil
}

type JobCourse struct {
	JobID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"job_id"`
	CourseID uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
}

func (JobCourse) TableName() string {
	return "job_courses"
}

type JobSkillRequirement struct {
	JobID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	SkillID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"skill_id"`
	RequiredLevel int       `gorm:"not null" json:"required_level"`

	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}

func (JobSkillRequirement) TableName() string {
	return "job_skill_requirements"
}

type JobApplication struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	JobID     uuid.UUID `gorm:"type:uuid;not null" json:"job_id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (JobApplication) TableName() string {
	return "job_applications"
}

func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&a.ID)
	return nil
}
