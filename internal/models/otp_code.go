package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OTPCode stores a hashed one-time login code for a phone.
type OTPCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Phone     string    `gorm:"not null;index" json:"phone"`
	CodeHash  string    `gorm:"column:code_hash;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"not null" json:"used"`
	CreatedAt time.Time `json:"created_at"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}

func (o *OTPCode) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&o.ID)
	return nil
}
