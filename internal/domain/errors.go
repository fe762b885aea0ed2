// internal/domain/errors.go
package domain

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrDuplicateCedula    = errors.New("student with this cedula already exists")
	ErrDuplicatePayment   = errors.New("payment already registered for this period")
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes one rejected input field. It matches ErrValidation
// with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Kind returns a short machine readable name for the error kind of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateCedula):
		return "duplicate_cedula"
	case errors.Is(err, ErrDuplicatePayment):
		return "duplicate_payment"
	case errors.Is(err, ErrDuplicateUsername):
		return "duplicate_username"
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return "unauthorized"
	default:
		return "internal_error"
	}
}
