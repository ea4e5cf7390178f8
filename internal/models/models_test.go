package models

import (
	"testing"
	"time"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Go Backend":         "go-backend",
		"  React & Next.js ": "react-next-js",
		"ვებ დეველოპმენტი": "ვებ-დეველოპმენტი",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Slugify("!!!"); len(got) != 8 {
		t.Errorf("Slugify of symbols should fall back to a short id, got %q", got)
	}
}

func TestTaskDeadlinePassed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	task := &Task{}
	if task.DeadlinePassed(now) {
		t.Fatal("task without deadline never expires")
	}
	past := now.Add(-time.Hour)
	task.Deadline = &past
	if !task.DeadlinePassed(now) {
		t.Fatal("expected deadline to have passed")
	}
}

func TestTaskStatusReviewed(t *testing.T) {
	for _, s := range []TaskStatus{TaskApproved, TaskRejected} {
		if !s.Reviewed() {
			t.Errorf("%s should be reviewed", s)
		}
	}
	for _, s := range []TaskStatus{TaskInProgress, TaskPaused, TaskDone} {
		if s.Reviewed() {
			t.Errorf("%s should not be reviewed", s)
		}
	}
}

func TestCertificateStatusIsValid(t *testing.T) {
	if !CertificateSent.IsValid() {
		t.Fatal("sent should be valid")
	}
	if CertificateStatus("lost").IsValid() {
		t.Fatal("lost should be invalid")
	}
}
