package services

import "errors"

// Error kinds. Controllers map these to HTTP status codes; every error a
// service returns on purpose is one of them or wraps one.
var (
	ErrUnauthorized    = errors.New("Unauthorized")
	ErrForbidden       = errors.New("Forbidden")
	ErrNotFound        = errors.New("Not found")
	ErrValidation      = errors.New("Validation failed")
	ErrTooManyAttempts = errors.New("Too many attempts, try again later")
)

var (
	ErrInvalidOrExpiredCode = &ValidationError{Message: "Invalid or expired code"}
	ErrStudentNotFound      = &NotFoundError{Message: "Student not found"}
	ErrNotImpersonating     = &ValidationError{Message: "Not currently impersonating anyone"}
	ErrAdminRevoked         = &AccessError{Kind: ErrUnauthorized, Message: "Original admin session is no longer valid"}
	ErrAdminRequired        = &AccessError{Kind: ErrForbidden, Message: "Forbidden: Admin access required"}
	ErrImpersonationActive  = &AccessError{Kind: ErrForbidden, Message: "Forbidden: stop impersonating to use admin actions"}
)

// ValidationError is a 400 with a message safe to show the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError is a 404 naming the missing entity.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AccessError carries a client message for ErrUnauthorized or ErrForbidden.
type AccessError struct {
	Kind    error
	Message string
}

func (e *AccessError) Error() string { return e.Message }
func (e *AccessError) Unwrap() error { return e.Kind }

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}

func notFound(msg string) error {
	return &NotFoundError{Message: msg}
}

// isClientError reports whether err already carries a client-facing message.
func isClientError(err error) bool {
	var ve *ValidationError
	var nf *NotFoundError
	var ae *AccessError
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &ae)
}
