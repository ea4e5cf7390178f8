package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// APILog is one audit row per handled request. Rows are never updated.
type APILog struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Method       string         `gorm:"not null" json:"method"`
	Path         string         `gorm:"not null" json:"path"`
	StatusCode   int            `gorm:"not null" json:"status_code"`
	DurationMs   int64          `gorm:"column:duration_ms;not null" json:"duration_ms"`
	UserID       *uuid.UUID     `gorm:"type:uuid" json:"user_id"`
	IPAddress    *string        `gorm:"column:ip_address" json:"ip_address"`
	UserAgent    *string        `json:"user_agent"`
	ErrorMessage *string        `json:"error_message"`
	RequestBody  datatypes.JSON `gorm:"type:jsonb" json:"request_body"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`

	Student *Student `gorm:"foreignKey:UserID" json:"student,omitempty"`
}

func (APILog) TableName() string {
	return "api_logs"
}

func (l *APILog) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&l.ID)
	return nil
}
