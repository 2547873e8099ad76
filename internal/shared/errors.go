package shared

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDirectoryUnavailable indicates the principal directory cannot be reached.
	ErrDirectoryUnavailable = errors.New("directory unavailable")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// ValidationError describes a single violated rule on a candidate mutation.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors aggregates rule violations. An empty list means valid.
// It implements error so the directory can surface structural failures
// through ordinary error returns; callers unwrap it with errors.As.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// AsValidationErrors extracts an aggregated rule-violation list from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// UserSafeMessage maps internal errors to a message safe to show end users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is not valid"
	case errors.Is(err, ErrDirectoryUnavailable):
		return "The directory is temporarily unavailable, try again later"
	default:
		return "Something went wrong, try again later"
	}
}
