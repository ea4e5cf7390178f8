package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

var (
	taskColumns = []string{"id", "title", "deadline", "coins_reward", "is_active", "created_at", "updated_at"}
	appColumns  = []string{"id", "task_id", "student_id", "status", "submission", "created_at", "updated_at"}
)

func newTestTaskService(t *testing.T, now time.Time) (*TaskService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	svc := NewTaskService(db)
	svc.now = func() time.Time { return now }
	return svc, mock
}

func TestTaskService_ApplyAfterDeadline(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestTaskService(t, now)
	taskID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(taskID.String(), "Essay", now.Add(-time.Minute), 10, true, now, now))

	_, err := svc.Apply(context.Background(), uuid.New(), taskID.String())
	if got := validationMessage(t, err); got != "The deadline for this task has passed" {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestTaskService_ApplyCreatesInProgress(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, mock := newTestTaskService(t, now)
	taskID, studentID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "tasks"`).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(taskID.String(), "Essay", nil, 10, true, now, now))
	mock.ExpectQuery(`FROM "task_applications" WHERE student_id = \$1 AND task_id = \$2`).
		WillReturnRows(sqlmock.NewRows(appColumns))
	mock.ExpectQuery(`INSERT INTO "task_applications"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))

	app, err := svc.Apply(context.Background(), studentID, taskID.String())
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if app.Status != "in_progress" || app.StudentID != studentID {
		t.Fatalf("unexpected application %+v", app)
	}
	expectMet(t, mock)
}

func TestTaskService_UpdateApplicationValidation(t *testing.T) {
	svc, mock := newTestTaskService(t, time.Now())
	ctx := context.Background()

	_, err := svc.UpdateApplication(ctx, uuid.New(), uuid.NewString(), "approved", nil)
	if got := validationMessage(t, err); got != "Invalid status" {
		t.Fatalf("message = %q", got)
	}
	blank := "   "
	_, err = svc.UpdateApplication(ctx, uuid.New(), uuid.NewString(), "done", &blank)
	if got := validationMessage(t, err); got != "Submission is required when marking task as done" {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestTaskService_UpdateReviewedApplication(t *testing.T) {
	now := time.Now()
	svc, mock := newTestTaskService(t, now)
	taskID, studentID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "task_applications"`).
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow(uuid.NewString(), taskID.String(), studentID.String(), "rejected", nil, now, now))

	_, err := svc.UpdateApplication(context.Background(), studentID, taskID.String(), "paused", nil)
	if got := validationMessage(t, err); got != "Cannot update approved or rejected application" {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestTaskService_CancelApprovedApplication(t *testing.T) {
	now := time.Now()
	svc, mock := newTestTaskService(t, now)
	taskID, studentID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM "task_applications"`).
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow(uuid.NewString(), taskID.String(), studentID.String(), "approved", "done", now, now))

	err := svc.CancelApplication(context.Background(), studentID, taskID.String())
	if got := validationMessage(t, err); got != "Cannot cancel approved application" {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestTaskService_ReviewApprovesAndAwardsSkills(t *testing.T) {
	now := time.Now()
	svc, mock := newTestTaskService(t, now)
	appID, taskID, studentID := uuid.New(), uuid.New(), uuid.New()
	skillA, skillB := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "task_applications" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow(appID.String(), taskID.String(), studentID.String(), "done", "link", now, now))
	mock.ExpectExec(`UPDATE "task_applications" SET "status"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "task_skill_rewards" WHERE task_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"task_id", "skill_id", "level_reward"}).
			AddRow(taskID.String(), skillA.String(), 1).
			AddRow(taskID.String(), skillB.String(), 2))
	mock.ExpectQuery(`INSERT INTO "student_skills" .*ON CONFLICT \("student_id","skill_id"\) DO UPDATE SET .*student_skills.proficiency_level \+ EXCLUDED.proficiency_level`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectQuery(`INSERT INTO "student_skills"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()))
	mock.ExpectCommit()

	msg, err := svc.ReviewApplication(context.Background(), appID.String(), "approved")
	if err != nil {
		t.Fatalf("ReviewApplication() error: %v", err)
	}
	if msg != "Application approved and skills awarded" {
		t.Fatalf("message = %q", msg)
	}
	expectMet(t, mock)
}

func TestTaskService_ReviewAlreadyProcessed(t *testing.T) {
	now := time.Now()
	svc, mock := newTestTaskService(t, now)
	appID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM "task_applications" .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow(appID.String(), uuid.NewString(), uuid.NewString(), "approved", "link", now, now))
	mock.ExpectRollback()

	_, err := svc.ReviewApplication(context.Background(), appID.String(), "rejected")
	if got := validationMessage(t, err); got != "Application has already been processed" {
		t.Fatalf("message = %q", got)
	}
	expectMet(t, mock)
}

func TestTaskService_ReviewRejectsOtherStatuses(t *testing.T) {
	svc, _ := newTestTaskService(t, time.Now())
	for _, status := range []string{"", "done", "in_progress"} {
		_, err := svc.ReviewApplication(context.Background(), uuid.NewString(), status)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("status %q: expected validation error, got %v", status, err)
		}
	}
}
