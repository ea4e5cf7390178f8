package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskInProgress TaskStatus = "in_progress"
	TaskPaused     TaskStatus = "paused"
	TaskDone       TaskStatus = "done"
	TaskApproved   TaskStatus = "approved"
	TaskRejected   TaskStatus = "rejected"
)

// Reviewed reports whether an admin has already decided on the application.
func (s TaskStatus) Reviewed() bool {
	return s == TaskApproved || s == TaskRejected
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description *string    `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	CoinsReward int        `gorm:"not null" json:"coins_reward"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Courses      []Course          `gorm:"many2many:task_courses" json:"courses"`
	SkillRewards []TaskSkillReward `gorm:"foreignKey:TaskID" json:"skill_rewards"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&t.ID)
	return nil
}

// DeadlinePassed reports whether now is past the task's deadline, if it has one.
func (t *Task) DeadlinePassed(now time.Time) bool {
	return t.Deadline != nil && now.After(*t.Deadline)
}

type TaskCourse struct {
	TaskID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"task_id"`
	CourseID uuid.UUID `gorm:"type:uuid;primaryKey" json:"course_id"`
}

func (TaskCourse) TableName() string {
	return "task_courses"
}

type TaskSkillReward struct {
	TaskID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	SkillID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"skill_id"`
	LevelReward int       `gorm:"not null" json:"level_reward"`

	Skill *Skill `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
}

func (TaskSkillReward) TableName() string {
	return "task_skill_rewards"
}

type TaskApplication struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	TaskID     uuid.UUID  `gorm:"type:uuid;not null" json:"task_id"`
	StudentID  uuid.UUID  `gorm:"type:uuid;not null" json:"student_id"`
	Status     TaskStatus `gorm:"not null" json:"status"`
	Submission *string    `json:"submission"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Task    *Task    `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (TaskApplication) TableName() string {
	return "task_applications"
}

func (a *TaskApplication) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&a.ID)
	return nil
}
