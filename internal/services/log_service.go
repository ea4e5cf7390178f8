package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/repositories"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 500
)

// LogQuery is the raw query string of GET /api/logs.
type LogQuery struct {
	Method    string
	Path      string
	Status    string
	UserID    string
	StartDate string
	EndDate   string
	Limit     string
	Offset    string
}

type LogPage struct {
	Logs   []models.APILog `json:"logs"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type AttemptStudent struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type LoginAttemptView struct {
	models.LoginAttempt
	IsRegistered bool            `json:"is_registered"`
	Student      *AttemptStudent `json:"student"`
}

type LoginAttemptReport struct {
	Attempts          []LoginAttemptView `json:"attempts"`
	Total             int                `json:"total"`
	RegisteredCount   int                `json:"registered_count"`
	UnregisteredCount int                `json:"unregistered_count"`
}

// LogService reads the audit trail and the OTP attempt table.
type LogService struct {
	logs     repositories.APILogRepository
	attempts repositories.LoginAttemptRepository
	students repositories.StudentRepository
}

func NewLogService(logs repositories.APILogRepository, attempts repositories.LoginAttemptRepository, students repositories.StudentRepository) *LogService {
	return &LogService{logs: logs, attempts: attempts, students: students}
}

func (s *LogService) Logs(ctx context.Context, q LogQuery) (*LogPage, error) {
	f, err := parseLogQuery(q)
	if err != nil {
		return nil, err
	}
	logs, total, err := s.logs.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	if logs == nil {
		logs = []models.APILog{}
	}
	return &LogPage{Logs: logs, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func parseLogQuery(q LogQuery) (repositories.APILogFilter, error) {
	f := repositories.APILogFilter{
		Method: strings.ToUpper(strings.TrimSpace(q.Method)),
		Path:   strings.TrimSpace(q.Path),
		UserID: strings.TrimSpace(q.UserID),
		Limit:  defaultLogLimit,
	}

	switch status := strings.TrimSpace(q.Status); status {
	case "":
	case "success", "error":
		f.StatusKind = status
	default:
		code, err := strconv.Atoi(status)
		if err != nil || code <= 0 {
			return f, invalid("Invalid status filter")
		}
		f.StatusCode = code
	}

	if f.UserID != "" {
		if _, err := uuid.Parse(f.UserID); err != nil {
			return f, invalid("Invalid value for user_id: expected uuid")
		}
	}

	var err error
	if f.StartDate, err = optionalTime("start_date", q.StartDate); err != nil {
		return f, err
	}
	if f.EndDate, err = optionalTime("end_date", q.EndDate); err != nil {
		return f, err
	}

	if raw := strings.TrimSpace(q.Limit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return f, invalid("Invalid value for limit: expected integer")
		}
		f.Limit = min(n, maxLogLimit)
	}
	if raw := strings.TrimSpace(q.Offset); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, invalid("Invalid value for offset: expected integer")
		}
		f.Offset = n
	}
	return f, nil
}

func optionalTime(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTimestamp(raw)
	if err != nil {
		return nil, invalid("Invalid value for " + field + ": expected timestamp")
	}
	return &t, nil
}

// LoginAttempts lists every phone that asked for a code, marking the ones
// that belong to a student.
func (s *LogService) LoginAttempts(ctx context.Context) (*LoginAttemptReport, error) {
	attempts, err := s.attempts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list login attempts: %w", err)
	}
	phones := make([]string, 0, len(attempts))
	for _, a := range attempts {
		phones = append(phones, a.Phone)
	}
	students, err := s.students.ListByPhones(ctx, phones)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	byPhone := make(map[string]models.Student, len(students))
	for _, st := range students {
		byPhone[st.Phone] = st
	}

	report := &LoginAttemptReport{Attempts: make([]LoginAttemptView, 0, len(attempts)), Total: len(attempts)}
	for _, a := range attempts {
		view := LoginAttemptView{LoginAttempt: a}
		if st, ok := byPhone[a.Phone]; ok {
			view.IsRegistered = true
			view.Student = &AttemptStudent{ID: st.ID, Name: st.Name}
			report.RegisteredCount++
		}
		report.Attempts = append(report.Attempts, view)
	}
	report.UnregisteredCount = report.Total - report.RegisteredCount
	return report, nil
}
