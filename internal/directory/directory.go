// Package directory abstracts the principal store behind the access-control
// layer. The decision engine and the admin workflows consume this port and
// never reach into storage themselves; every read used for a decision is a
// fresh directory call.
package directory

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/docgate/docgate/internal/shared"
)

// Directory is the port to the principal/role/membership store. All
// operations are fallible; structural rule violations surface as
// shared.ValidationErrors, missing records as shared.ErrNotFound, and
// infrastructure faults as shared.ErrDirectoryUnavailable.
type Directory interface {
	FindByID(ctx context.Context, id string) (*Principal, error)
	FindByName(ctx context.Context, name string) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	List(ctx context.Context) ([]Principal, error)
	Create(ctx context.Context, candidate NewPrincipal) (*Principal, error)
	Update(ctx context.Context, id string, patch Patch) (*Principal, error)
	Delete(ctx context.Context, id string) error

	FindRoleByID(ctx context.Context, id string) (*Role, error)
	FindRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name string) (*Role, error)
	DeleteRole(ctx context.Context, id string) error

	IsMember(ctx context.Context, principalID, roleID string) (bool, error)
	ListMemberIDs(ctx context.Context, roleID string) ([]string, error)
	AddMember(ctx context.Context, principalID, roleID string) error
	RemoveMember(ctx context.Context, principalID, roleID string) error
}

var validate = validator.New()

// checkNewPrincipal runs the baseline field rules shared by both
// implementations. Uniqueness is enforced by each store.
func checkNewPrincipal(candidate NewPrincipal) shared.ValidationErrors {
	err := validate.Struct(candidate)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return shared.ValidationErrors{{Code: "InvalidCandidate", Message: err.Error()}}
	}
	var errs shared.ValidationErrors
	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "Name":
			errs = append(errs, shared.ValidationError{Code: "InvalidUserName", Message: "Name must be between 2 and 64 characters"})
		case "Email":
			errs = append(errs, shared.ValidationError{Code: "InvalidEmail", Message: "Email address is not valid"})
		case "Password":
			errs = append(errs, shared.ValidationError{Code: "PasswordRequired", Message: "Password is required"})
		}
	}
	return errs
}

func checkEmail(email string) shared.ValidationErrors {
	if err := validate.Var(email, "required,email"); err != nil {
		return shared.ValidationErrors{{Code: "InvalidEmail", Message: "Email address is not valid"}}
	}
	return nil
}

func sameName(a, b string) bool  { return strings.EqualFold(a, b) }
func sameEmail(a, b string) bool { return strings.EqualFold(a, b) }
