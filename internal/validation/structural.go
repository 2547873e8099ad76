package validation

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
)

var fieldCheck = validator.New()

// Structural is the baseline stage: required fields, email format and
// name/email uniqueness against the directory.
type Structural struct {
	Dir directory.Directory
}

// Validate implements Validator.
func (s Structural) Validate(ctx context.Context, c Candidate) (shared.ValidationErrors, error) {
	var errs shared.ValidationErrors
	if err := fieldCheck.Var(c.Name, "required,min=2,max=64"); err != nil {
		errs = append(errs, shared.ValidationError{Code: "InvalidUserName", Message: "Name must be between 2 and 64 characters"})
	} else if taken, err := s.nameTaken(ctx, c); err != nil {
		return nil, err
	} else if taken {
		errs = append(errs, shared.ValidationError{Code: "DuplicateUserName", Message: "Name is already taken"})
	}
	if err := fieldCheck.Var(c.Email, "required,email"); err != nil {
		errs = append(errs, shared.ValidationError{Code: "InvalidEmail", Message: "Email address is not valid"})
	} else if taken, err := s.emailTaken(ctx, c); err != nil {
		return nil, err
	} else if taken {
		errs = append(errs, shared.ValidationError{Code: "DuplicateEmail", Message: "Email is already taken"})
	}
	return errs, nil
}

func (s Structural) nameTaken(ctx context.Context, c Candidate) (bool, error) {
	existing, err := s.Dir.FindByName(ctx, c.Name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != c.ID, nil
}

func (s Structural) emailTaken(ctx context.Context, c Candidate) (bool, error) {
	existing, err := s.Dir.FindByEmail(ctx, c.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != c.ID, nil
}
