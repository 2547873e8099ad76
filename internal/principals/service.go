// Package principals implements the administrative workflows over the
// principal directory: create, edit, delete and the self-service attribute
// profile. The edit path runs the full validation pipeline and commits
// only on total success.
package principals

import (
	"context"

	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
	"github.com/docgate/docgate/internal/validation"
)

// Service orchestrates principal administration.
type Service struct {
	dir       directory.Directory
	identity  validation.Pipeline
	passwords validation.PasswordPolicy
}

// NewService builds a Service. The identity pipeline validates email-side
// rules on edits; the password policy gates credential changes.
func NewService(dir directory.Directory, identity validation.Pipeline, passwords validation.PasswordPolicy) *Service {
	return &Service{dir: dir, identity: identity, passwords: passwords}
}

// List returns every principal in directory enumeration order.
func (s *Service) List(ctx context.Context) ([]directory.Principal, error) {
	return s.dir.List(ctx)
}

// Get fetches one principal.
func (s *Service) Get(ctx context.Context, id string) (*directory.Principal, error) {
	return s.dir.FindByID(ctx, id)
}

// Create runs the directory's own structural validation and, when it
// passes, the custom identity stages. Violations come back as data.
func (s *Service) Create(ctx context.Context, name, email, password string) (*directory.Principal, shared.ValidationErrors, error) {
	identityErrs, err := s.identity.Validate(ctx, validation.Candidate{Name: name, Email: email})
	if err != nil {
		return nil, nil, err
	}
	passwordErrs := s.passwords.Validate(password)
	if all := append(identityErrs, passwordErrs...); len(all) > 0 {
		return nil, all, nil
	}
	created, err := s.dir.Create(ctx, directory.NewPrincipal{Name: name, Email: email, Password: password})
	if err != nil {
		if verrs, ok := shared.AsValidationErrors(err); ok {
			return nil, verrs, nil
		}
		return nil, nil, err
	}
	return created, nil, nil
}

// Edit applies an email change and an optional credential change. All
// validation stages run regardless of each other's outcome so the caller
// sees every violated rule at once, but the mutation commits only when
// the email checks pass AND, if a password was supplied, the password
// checks pass too. Partial success commits nothing: a rejected password
// holds back the email change as well, keeping the record consistent.
func (s *Service) Edit(ctx context.Context, id, email, password string) (shared.ValidationErrors, error) {
	current, err := s.dir.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	emailErrs, err := s.identity.Validate(ctx, validation.Candidate{ID: id, Name: current.Name, Email: email})
	if err != nil {
		return nil, err
	}

	passwordSupplied := password != ""
	var passwordErrs shared.ValidationErrors
	if passwordSupplied {
		passwordErrs = s.passwords.Validate(password)
	}

	if len(emailErrs) > 0 || len(passwordErrs) > 0 {
		return append(emailErrs, passwordErrs...), nil
	}

	patch := directory.Patch{Email: &email}
	if passwordSupplied {
		// The hash is computed inside the directory, and only now that
		// the credential has passed validation.
		patch.Password = &password
	}
	if _, err := s.dir.Update(ctx, id, patch); err != nil {
		if verrs, ok := shared.AsValidationErrors(err); ok {
			return verrs, nil
		}
		return nil, err
	}
	return nil, nil
}

// Delete removes a principal via the directory.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.dir.Delete(ctx, id)
}

// SetAttributes updates the caller's own attribute map (locale and
// qualification). Keys outside the well-known set are rejected upstream
// by the handler's form binding.
func (s *Service) SetAttributes(ctx context.Context, id string, attrs map[string]string) (*directory.Principal, error) {
	return s.dir.Update(ctx, id, directory.Patch{Attributes: attrs})
}
