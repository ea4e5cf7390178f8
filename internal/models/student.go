package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Student struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     string    `gorm:"uniqueIndex;not null" json:"phone"`
	Email     *string   `json:"email"`
	GroupName *string   `gorm:"column:group_name" json:"group_name"`
	IsAdmin   bool      `gorm:"not null" json:"is_admin"`
	Coins     int       `gorm:"not null" json:"coins"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Courses []Course       `gorm:"many2many:student_courses" json:"courses,omitempty"`
	Skills  []StudentSkill `gorm:"foreignKey:StudentID" json:"skills,omitempty"`
}

func (Student) TableName() string {
	return "students"
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&s.ID)
	return nil
}

type StudentCourse struct {
	StudentID uuid.UUID `gorm:"type:uuid;primaryKey" json:"student_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
}

func (StudentCourse) TableName() string {
	return "student_courses"
}

type StudentSkill struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID        uuid.UUID `gorm:"type:uuid;not null" json:"student_id"`
	SkillID          uuid.UUID `gorm:"type:uuid;not null" json:"skill_id"`
	ProficiencyLevel int       `gorm:"not null" json:"proficiency_level"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}

func (StudentSkill) TableName() string {
	return "student_skills"
}

func (s *StudentSkill) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&s.ID)
	return nil
}
