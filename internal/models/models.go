package models

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// AllModels returns all model types for GORM operations
// Note: Migrations are handled by golang-migrate, not GORM AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Student{},
		&StudentCourse{},
		&StudentSkill{},
		&OTPCode{},
		&LoginAttempt{},
		&APILog{},
		&Course{},
		&Skill{},
		&Job{},
		&JobCourse{},
		&JobSkillRequirement{},
		&JobApplication{},
		&Task{},
		&TaskCourse{},
		&TaskSkillReward{},
		&TaskApplication{},
		&Technology{},
		&Topic{},
		&CertificateRequest{},
	}
}

// Slugify lowercases s and joins its letter/digit runs with dashes.
// Non-latin letters are kept so Georgian names still produce a slug.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return uuid.NewString()[:8]
	}
	return slug
}

func newIDIfNil(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
