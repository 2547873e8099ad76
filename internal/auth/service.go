// Package auth produces the authenticated principal the decision engine
// consumes. Credentials are verified against the directory's opaque hash;
// the session only ever stores the principal ID.
package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	dir directory.Directory
}

// NewService constructs a new Service.
func NewService(dir directory.Directory) *Service {
	return &Service{dir: dir}
}

// Authenticate validates name/password credentials. Every failure mode
// collapses to ErrInvalidCredentials so callers cannot probe for names.
func (s *Service) Authenticate(ctx context.Context, name, password string) (*directory.Principal, error) {
	p, err := s.dir.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return p, nil
}
