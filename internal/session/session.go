// Package session carries the authenticated identity in a signed client cookie.
// Nothing is stored server-side; the admin flag inside a session is only a
// claim and must be re-checked against the database before use.
package session

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTTL applies to both regular and impersonated sessions.
const DefaultTTL = 7 * 24 * time.Hour

// OriginalAdmin points back to the admin who started an impersonation.
type OriginalAdmin struct {
	StudentID string `json:"studentId"`
	Phone     string `json:"phone"`
	Name      string `json:"name"`
}

type Session struct {
	StudentID       string         `json:"studentId"`
	Phone           string         `json:"phone"`
	Name            string         `json:"name"`
	IsAdmin         bool           `json:"isAdmin"`
	IsImpersonating bool           `json:"isImpersonating,omitempty"`
	OriginalAdmin   *OriginalAdmin `json:"originalAdmin,omitempty"`
	// ExpiresAt is epoch milliseconds.
	ExpiresAt int64 `json:"expiresAt"`
}

// New builds a plain session for a subject expiring ttl from now.
func New(id uuid.UUID, phone, name string, isAdmin bool, now time.Time, ttl time.Duration) Session {
	return Session{
		StudentID: id.String(),
		Phone:     phone,
		Name:      name,
		IsAdmin:   isAdmin,
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}
}

// Impersonating builds a non-admin session for target that remembers admin.
func Impersonating(target Session, admin Session, now time.Time, ttl time.Duration) Session {
	target.IsAdmin = false
	target.IsImpersonating = true
	target.OriginalAdmin = &OriginalAdmin{
		StudentID: admin.StudentID,
		Phone:     admin.Phone,
		Name:      admin.Name,
	}
	target.ExpiresAt = now.Add(ttl).UnixMilli()
	return target
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return now.UnixMilli() >= s.ExpiresAt
}

// ClaimsAdmin reports whether the cookie asserts admin rights, directly or
// through the admin behind an impersonation.
func (s *Session) ClaimsAdmin() bool {
	return s.IsAdmin || (s.IsImpersonating && s.OriginalAdmin != nil)
}

// PrivilegedSubject returns the id whose persisted admin flag decides the claim.
func (s *Session) PrivilegedSubject() string {
	if s.IsImpersonating && s.OriginalAdmin != nil {
		return s.OriginalAdmin.StudentID
	}
	return s.StudentID
}

// SubjectUUID parses the acting subject id.
func (s *Session) SubjectUUID() (uuid.UUID, error) {
	return uuid.Parse(s.StudentID)
}

// wellFormed enforces the shape every decoded session must have.
func (s *Session) wellFormed() bool {
	if s.StudentID == "" {
		return false
	}
	if s.IsImpersonating && (s.IsAdmin || s.OriginalAdmin == nil || s.OriginalAdmin.StudentID == "") {
		return false
	}
	return true
}
