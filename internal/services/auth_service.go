package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dath-251-thuanle/student-portal-be-web/internal/models"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/policy"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/repositories"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/session"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/sms"
	"github.com/dath-251-thuanle/student-portal-be-web/internal/telemetry"
)

const OTPSentMessage = "If this phone is registered, an OTP will be sent"

// AuthOptions tunes AuthService. Zero values fall back to the defaults.
type AuthOptions struct {
	OTPTTL         time.Duration
	SessionTTL     time.Duration
	ThrottleWindow time.Duration
	SMSTimeout     time.Duration
	Metrics        *telemetry.Metrics
	Logger         *slog.Logger
	Now            func() time.Time
}

// PrivilegeVerdict is the outcome of VerifyPrivilege. Session is nil when
// the request carried no valid session.
type PrivilegeVerdict struct {
	IsAdmin bool
	Session *session.Session
}

type AuthService struct {
	students repositories.StudentRepository
	codes    repositories.OTPCodeRepository
	attempts repositories.LoginAttemptRepository
	throttle policy.Throttle
	sender   sms.Sender

	otpTTL     time.Duration
	sessionTTL time.Duration
	window     time.Duration
	smsTimeout time.Duration
	metrics    *telemetry.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewAuthService(
	students repositories.StudentRepository,
	codes repositories.OTPCodeRepository,
	attempts repositories.LoginAttemptRepository,
	throttle policy.Throttle,
	sender sms.Sender,
	opts AuthOptions,
) *AuthService {
	s := &AuthService{
		students:   students,
		codes:      codes,
		attempts:   attempts,
		throttle:   throttle,
		sender:     sender,
		otpTTL:     opts.OTPTTL,
		sessionTTL: opts.SessionTTL,
		window:     opts.ThrottleWindow,
		smsTimeout: opts.SMSTimeout,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if s.throttle == nil {
		s.throttle = policy.AllowAll{}
	}
	if s.otpTTL <= 0 {
		s.otpTTL = 5 * time.Minute
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = session.DefaultTTL
	}
	if s.window <= 0 {
		s.window = 15 * time.Minute
	}
	if s.smsTimeout <= 0 {
		s.smsTimeout = 10 * time.Second
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// SessionTTL is the lifetime of every session this service issues.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// IssueOTP normalizes phone and, if a student owns it, stores a fresh code
// and sends it by SMS. The result is the same for registered and unknown
// phones: only the normalized phone comes back. Storage failures are logged
// and swallowed for the same reason; an unreadable attempt counter counts as
// no attempts.
func (s *AuthService) IssueOTP(ctx context.Context, rawPhone string) (string, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return "", err
	}
	now := s.now()

	attempt, err := s.attempts.Get(ctx, phone)
	if err != nil {
		s.logger.ErrorContext(ctx, "auth: failed to load login attempt", "phone", phone, "error", err)
		attempt = nil
	}
	in := policy.ThrottleInput{Now: now}
	resetWindow := true
	if attempt != nil {
		in.AttemptCount = attempt.AttemptCount
		in.FirstAttempt = attempt.FirstAttemptAt
		resetWindow = now.Sub(attempt.FirstAttemptAt) >= s.window
	}
	allowed, err := s.throttle.Allow(ctx, in)
	if err != nil {
		return "", fmt.Errorf("evaluate throttle: %w", err)
	}

	if err := s.attempts.Record(ctx, phone, now, resetWindow); err != nil {
		s.logger.ErrorContext(ctx, "auth: failed to record login attempt", "phone", phone, "error", err)
	}
	if !allowed {
		s.metrics.OTPThrottled(ctx)
		return "", ErrTooManyAttempts
	}

	student, err := s.students.GetByPhone(ctx, phone)
	if err != nil {
		s.logger.ErrorContext(ctx, "auth: student lookup failed", "phone", phone, "error", err)
		return phone, nil
	}
	if student == nil {
		s.logger.InfoContext(ctx, "auth: otp requested for unregistered phone", "phone", phone)
		return phone, nil
	}

	code, err := GenerateOTP(nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "auth: otp generation failed", "error", err)
		return phone, nil
	}
	if err := s.codes.Replace(ctx, phone, HashOTP(code), now.Add(s.otpTTL)); err != nil {
		s.logger.ErrorContext(ctx, "auth: failed to store otp", "phone", phone, "error", err)
		return phone, nil
	}
	s.metrics.OTPIssued(ctx)

	go s.deliver(phone, code)
	return phone, nil
}

// deliver runs detached from the request; its outcome is only logged.
func (s *AuthService) deliver(phone, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.smsTimeout)
	defer cancel()
	if err := s.sender.SendOTP(ctx, phone, code); err != nil {
		s.metrics.SMSFailed(ctx)
		s.logger.ErrorContext(ctx, "auth: sms delivery failed", "phone", phone, "error", err)
	}
}

// VerifyOTP consumes a matching code and returns the student with a fresh
// session built from their current admin flag.
func (s *AuthService) VerifyOTP(ctx context.Context, rawPhone, code string) (*models.Student, session.Session, error) {
	code = strings.TrimSpace(code)
	if strings.TrimSpace(rawPhone) == "" || code == "" {
		return nil, session.Session{}, invalid("Phone and code are required")
	}
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, session.Session{}, err
	}
	now := s.now()

	row, err := s.codes.FindValid(ctx, phone, HashOTP(code), now)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("find otp: %w", err)
	}
	if row == nil {
		s.metrics.OTPVerified(ctx, false)
		return nil, session.Session{}, ErrInvalidOrExpiredCode
	}
	consumed, err := s.codes.Consume(ctx, row.ID)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("consume otp: %w", err)
	}
	if !consumed {
		s.metrics.OTPVerified(ctx, false)
		return nil, session.Session{}, ErrInvalidOrExpiredCode
	}

	student, err := s.students.GetByPhone(ctx, phone)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, session.Session{}, ErrStudentNotFound
	}
	s.metrics.OTPVerified(ctx, true)

	sess := session.New(student.ID, student.Phone, student.Name, student.IsAdmin, now, s.sessionTTL)
	return student, sess, nil
}

// VerifyPrivilege is the only admin check. The cookie's claim is never
// trusted on its own: a claimed admin is looked up again, and for an
// impersonation the original admin is the one looked up.
func (s *AuthService) VerifyPrivilege(ctx context.Context, sess *session.Session) (PrivilegeVerdict, error) {
	if sess == nil {
		return PrivilegeVerdict{}, nil
	}
	verdict := PrivilegeVerdict{Session: sess}
	if !sess.ClaimsAdmin() {
		return verdict, nil
	}

	id, err := uuid.Parse(sess.PrivilegedSubject())
	if err != nil {
		return verdict, nil
	}
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return verdict, fmt.Errorf("verify admin: %w", err)
	}
	verdict.IsAdmin = student != nil && student.IsAdmin
	return verdict, nil
}

// StartImpersonation builds a non-admin session for the target that points
// back to admin. The caller must have verified admin with VerifyPrivilege;
// an impersonated session can never start another one.
func (s *AuthService) StartImpersonation(ctx context.Context, admin *session.Session, targetID string) (*models.Student, session.Session, error) {
	if admin == nil {
		return nil, session.Session{}, ErrUnauthorized
	}
	if admin.IsImpersonating {
		return nil, session.Session{}, ErrImpersonationActive
	}
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return nil, session.Session{}, invalid("Student ID is required")
	}
	id, err := uuid.Parse(targetID)
	if err != nil {
		return nil, session.Session{}, ErrStudentNotFound
	}
	target, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("load student: %w", err)
	}
	if target == nil {
		return nil, session.Session{}, ErrStudentNotFound
	}

	now := s.now()
	acting := session.New(target.ID, target.Phone, target.Name, false, now, s.sessionTTL)
	return target, session.Impersonating(acting, *admin, now, s.sessionTTL), nil
}

// StopImpersonation restores the original admin's own session. If that
// admin no longer exists or lost the flag, ErrAdminRevoked is returned and
// the caller must drop the cookie.
func (s *AuthService) StopImpersonation(ctx context.Context, sess *session.Session) (*models.Student, session.Session, error) {
	if sess == nil {
		return nil, session.Session{}, ErrUnauthorized
	}
	if !sess.IsImpersonating || sess.OriginalAdmin == nil {
		return nil, session.Session{}, ErrNotImpersonating
	}
	id, err := uuid.Parse(sess.OriginalAdmin.StudentID)
	if err != nil {
		return nil, session.Session{}, ErrAdminRevoked
	}
	admin, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, session.Session{}, fmt.Errorf("load admin: %w", err)
	}
	if admin == nil || !admin.IsAdmin {
		return nil, session.Session{}, ErrAdminRevoked
	}

	return admin, session.New(admin.ID, admin.Phone, admin.Name, true, s.now(), s.sessionTTL), nil
}
