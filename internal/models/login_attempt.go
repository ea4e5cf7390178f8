package models

import "time"

type LoginAttempt struct {
	Phone          string    `gorm:"primaryKey" json:"phone"`
	AttemptCount   int       `gorm:"not null" json:"attempt_count"`
	FirstAttemptAt time.Time `json:"first_attempt_at"`
	LastAttemptAt  time.Time `json:"last_attempt_at"`
}

func (LoginAttempt) TableName() string {
	return "login_attempts"
}
