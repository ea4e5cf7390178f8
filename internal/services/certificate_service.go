package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

const msgCertificateNotFound = "Certificate request not found"

type CertificateInput struct {
	Address        string   `json:"address"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	AdditionalInfo *string  `json:"additional_info"`
}

type CertificateStatusInput struct {
	Status           string  `json:"status"`
	RejectionReason  *string `json:"rejection_reason"`
	EstimatedArrival *string `json:"estimated_arrival"`
}

type CertificateService struct {
	db *gorm.DB
}

func NewCertificateService(db *gorm.DB) *CertificateService {
	return &CertificateService{db: db}
}

// Latest returns the student's newest request, or nil.
func (s *CertificateService) Latest(ctx context.Context, studentID uuid.UUID) (*models.CertificateRequest, error) {
	var req models.CertificateRequest
	found, err := takeOne(s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC"), &req)
	if err != nil {
		return nil, fmt.Errorf("load certificate request: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &req, nil
}

func (s *CertificateService) ListAll(ctx context.Context) ([]models.CertificateRequest, error) {
	reqs := []models.CertificateRequest{}
	err := s.db.WithContext(ctx).
		Preload("Student", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "phone", "email", "group_name")
		}).
		Order("created_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("list certificate requests: %w", err)
	}
	return reqs, nil
}

// Create files a pending request. A student may hold at most one pending or
// sent request; the check and insert run under the student's row lock.
func (s *CertificateService) Create(ctx context.Context, studentID uuid.UUID, in CertificateInput) (*models.CertificateRequest, error) {
	address, err := requireString(in.Address, "Address is required")
	if err != nil {
		return nil, err
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, invalid("Location coordinates are required")
	}

	req := &models.CertificateRequest{
		StudentID:      studentID,
		Address:        address,
		Latitude:       *in.Latitude,
		Longitude:      *in.Longitude,
		AdditionalInfo: optionalString(in.AdditionalInfo),
		Status:         models.CertificatePending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		found, err := takeOne(tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", studentID), &student)
		if err != nil {
			return err
		}
		if !found {
			return ErrStudentNotFound
		}
		var active int64
		if err := tx.Model(&models.CertificateRequest{}).
			Where("student_id = ? AND status IN ?", studentID,
				[]string{string(models.CertificatePending), string(models.CertificateSent)}).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return invalid("You already have an active certificate request")
		}
		return tx.Omit("Student").Create(req).Error
	})
	if err != nil {
		if isClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create certificate request: %w", err)
	}
	return req, nil
}

// UpdateStatus moves a request through its delivery states. rejected needs a
// reason and sent needs an arrival date; each clears the other's field.
func (s *CertificateService) UpdateStatus(ctx context.Context, rawID string, in CertificateStatusInput) (*models.CertificateRequest, error) {
	if strings.TrimSpace(in.Status) == "" {
		return nil, invalid("Status is required")
	}
	status := models.CertificateStatus(in.Status)
	if !status.IsValid() {
		return nil, invalid("Invalid status")
	}
	fields := map[string]any{"status": string(status)}
	switch status {
	case models.CertificateRejected:
		reason := optionalString(in.RejectionReason)
		if reason == nil {
			return nil, invalid("Rejection reason is required")
		}
		fields["rejection_reason"] = *reason
		fields["estimated_arrival"] = nil
	case models.CertificateSent:
		raw := optionalString(in.EstimatedArrival)
		if raw == nil {
			return nil, invalid("Estimated arrival date is required")
		}
		d, err := parseDate(*raw)
		if err != nil {
			return nil, invalid("Invalid value for estimated_arrival: expected date")
		}
		fields["estimated_arrival"] = d
		fields["rejection_reason"] = nil
	case models.CertificateDelivered:
		fields["rejection_reason"] = nil
	}

	id, err := parseID(rawID, msgCertificateNotFound)
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.CertificateRequest{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("update certificate request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, notFound(msgCertificateNotFound)
	}
	var req models.CertificateRequest
	if _, err := takeOne(s.db.WithContext(ctx).Where("id = ?", id), &req); err != nil {
		return nil, fmt.Errorf("load certificate request: %w", err)
	}
	return &req, nil
}

func (s *CertificateService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID, msgCertificateNotFound)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CertificateRequest{})
	if res.Error != nil {
		return fmt.Errorf("delete certificate request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound(msgCertificateNotFound)
	}
	return nil
}
