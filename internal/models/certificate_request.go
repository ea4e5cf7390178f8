package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CertificateStatus string

const (
	CertificatePending   CertificateStatus = "pending"
	CertificateRejected  CertificateStatus = "rejected"
	CertificateSent      CertificateStatus = "sent"
	CertificateDelivered CertificateStatus = "delivered"
)

func (s CertificateStatus) IsValid() bool {
	switch s {
	case CertificatePending, CertificateRejected, CertificateSent, CertificateDelivered:
		return true
	}
	return false
}

type CertificateRequest struct {
	ID               uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	StudentID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"student_id"`
	Address          string            `gorm:"not null" json:"address"`
	Latitude         float64           `gorm:"not null" json:"latitude"`
	Longitude        float64           `gorm:"not null" json:"longitude"`
	AdditionalInfo   *string           `json:"additional_info"`
	Status           CertificateStatus `gorm:"not null" json:"status"`
	RejectionReason  *string           `json:"rejection_reason"`
	EstimatedArrival *datatypes.Date   `json:"estimated_arrival"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}

func (CertificateRequest) TableName() string {
	return "certificate_requests"
}

func (r *CertificateRequest) BeforeCreate(tx *gorm.DB) error {
	newIDIfNil(&r.ID)
	return nil
}
