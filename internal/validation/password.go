package validation

import (
	"fmt"
	"unicode"

	"github.com/docgate/docgate/internal/shared"
)

// PasswordPolicy validates a candidate credential before it is hashed.
// It is deliberately not a pipeline stage: it only ever sees the plaintext
// credential, and only when one was supplied.
type PasswordPolicy struct {
	MinLength              int
	RequireDigit           bool
	RequireUppercase       bool
	RequireLowercase       bool
	RequireNonAlphanumeric bool
}

// DefaultPasswordPolicy mirrors the directory's stock strength rules.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:              6,
		RequireDigit:           true,
		RequireUppercase:       true,
		RequireLowercase:       true,
		RequireNonAlphanumeric: true,
	}
}

// Validate returns every strength rule the credential violates.
func (p PasswordPolicy) Validate(password string) shared.ValidationErrors {
	var errs shared.ValidationErrors
	if len(password) < p.MinLength {
		errs = append(errs, shared.ValidationError{
			Code:    "PasswordTooShort",
			Message: fmt.Sprintf("Password must be at least %d characters", p.MinLength),
		})
	}
	var hasDigit, hasUpper, hasLower, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		default:
			hasSymbol = true
		}
	}
	if p.RequireDigit && !hasDigit {
		errs = append(errs, shared.ValidationError{Code: "PasswordRequiresDigit", Message: "Password must contain a digit"})
	}
	if p.RequireUppercase && !hasUpper {
		errs = append(errs, shared.ValidationError{Code: "PasswordRequiresUpper", Message: "Password must contain an uppercase letter"})
	}
	if p.RequireLowercase && !hasLower {
		errs = append(errs, shared.ValidationError{Code: "PasswordRequiresLower", Message: "Password must contain a lowercase letter"})
	}
	if p.RequireNonAlphanumeric && !hasSymbol {
		errs = append(errs, shared.ValidationError{Code: "PasswordRequiresNonAlphanumeric", Message: "Password must contain a non-alphanumeric character"})
	}
	return errs
}
