package shared

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The message is intentionally
	// generic so callers cannot probe which part of the credential was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates a missing, invalid or expired token.
	ErrUnauthenticated = errors.New("not authorized to access this route")
	// ErrForbidden indicates an authenticated caller without the required role.
	ErrForbidden = errors.New("insufficient role")
	// ErrDuplicateKey indicates a uniqueness violation in the store.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrDuplicateAccount indicates the email is already registered.
	ErrDuplicateAccount = errors.New("account with this email already exists")
	// ErrInvalidRole indicates an unknown role name was requested.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotStudent indicates the account lacks the student role.
	ErrNotStudent = errors.New("account is not a student")
	// ErrAlreadyEnrolled indicates the student is already enrolled in the course.
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	// ErrNotEnrolled indicates the student is not enrolled in the course.
	ErrNotEnrolled = errors.New("not enrolled in this course")
	// ErrAlreadySeeded indicates roles exist and re-seeding was rejected.
	ErrAlreadySeeded = errors.New("roles already exist")
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("validation failed")
	// ErrTooManyAttempts indicates the login attempt limiter kicked in.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
)

// ErrorCode returns the stable machine-readable code for a domain error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateAccount):
		return "duplicate_account"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrAlreadyEnrolled):
		return "already_enrolled"
	case errors.Is(err, ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, ErrNotStudent):
		return "not_student"
	case errors.Is(err, ErrAlreadySeeded):
		return "already_seeded"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrTooManyAttempts):
		return "too_many_attempts"
	default:
		return "internal"
	}
}

// HTTPStatus maps a domain error to its response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, ErrDuplicateAccount),
		errors.Is(err, ErrAlreadyEnrolled),
		errors.Is(err, ErrNotEnrolled),
		errors.Is(err, ErrInvalidRole),
		errors.Is(err, ErrNotStudent),
		errors.Is(err, ErrAlreadySeeded),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyAttempts):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// UserSafeMessage returns a message suitable for API responses. Unrecognised
// errors collapse to a generic message so internals never leak.
func UserSafeMessage(err error) string {
	if ErrorCode(err) == "internal" {
		return "internal server error"
	}
	return err.Error()
}
