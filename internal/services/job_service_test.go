package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
)

var jobColumns = []string{"id", "title", "company", "is_active", "created_at", "updated_at"}

func TestJobService_ApplyRejectsUnmetSkills(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db)
	jobID, studentID, skillID := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "jobs" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(jobID.String(), "Go developer", "Acme", true, time.Now(), time.Now()))
	mock.ExpectQuery(`SELECT \* FROM "job_skill_requirements" WHERE "job_skill_requirements"."job_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "skill_id", "required_level"}).
			AddRow(jobID.String(), skillID.String(), 3))
	mock.ExpectQuery(`SELECT \* FROM "job_applications" WHERE student_id = \$1 AND job_id = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "student_skills" WHERE student_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "skill_id", "proficiency_level"}).
			AddRow(uuid.NewString(), studentID.String(), skillID.String(), 2))

	_, err := svc.Apply(context.Background(), studentID, jobID.String())
	if got := validationMessage(t, err); got != msgSkillGateFailed {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestJobService_ApplyInactiveJob(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db)
	jobID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(jobID.String(), "Old", "Acme", false, time.Now(), time.Now()))
	mock.ExpectQuery(`FROM "job_skill_requirements"`).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "skill_id", "required_level"}))

	_, err := svc.Apply(context.Background(), uuid.New(), jobID.String())
	if got := validationMessage(t, err); got != "This job is no longer active" {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestJobService_ApplyUnknownJob(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db)

	mock.ExpectQuery(`SELECT \* FROM "jobs"`).WillReturnRows(sqlmock.NewRows(jobColumns))

	_, err := svc.Apply(context.Background(), uuid.New(), uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Apply(context.Background(), uuid.New(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("malformed id: expected not found, got %v", err)
	}
	expectMet(t, mock)
}

func TestJobService_ApplyTwice(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewJobService(db)
	jobID, studentID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "jobs"`).
		WillReturnRows(sqlmock.NewRows(jobColumns).
			AddRow(jobID.String(), "Go developer", "Acme", true, time.Now(), time.Now()))
	mock.ExpectQuery(`FROM "job_skill_requirements"`).
		WillReturnRows(sqlmock.NewRows([]string{"job_id", "skill_id", "required_level"}))
	mock.ExpectQuery(`FROM "job_applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "job_id", "student_id"}).
			AddRow(uuid.NewString(), jobID.String(), studentID.String()))

	_, err := svc.Apply(context.Background(), studentID, jobID.String())
	if got := validationMessage(t, err); got != "You have already applied to this job" {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestJobService_CreateRequiresTitleAndCompany(t *testing.T) {
	svc := NewJobService(nil)
	_, err := svc.Create(context.Background(), JobInput{Title: "  ", Company: "Acme"})
	if got := validationMessage(t, err); got != "Title and company are required" {
		t.Fatalf("message = %q", got)
	}
}

func TestMeetsRequirements(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	reqs := []models.JobSkillRequirement{{SkillID: a, RequiredLevel: 2}, {SkillID: b, RequiredLevel: 1}}

	cases := []struct {
		name   string
		levels map[uuid.UUID]int
		want   bool
	}{
		{"all met", map[uuid.UUID]int{a: 2, b: 5}, true},
		{"one short", map[uuid.UUID]int{a: 1, b: 5}, false},
		{"missing skill", map[uuid.UUID]int{a: 3}, false},
		{"no skills", nil, false},
	}
	for _, tc := range cases {
		if got := MeetsRequirements(reqs, tc.levels); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	if !MeetsRequirements(nil, nil) {
		t.Error("a job without requirements is open to everyone")
	}
}
