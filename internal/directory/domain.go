package directory

import "time"

// Well-known principal attribute names.
const (
	AttrCity          = "city"
	AttrQualification = "qualification"
)

// Principal represents an identity record owned by the directory.
// PasswordHash is an opaque blob; nothing outside the directory and the
// login path inspects it.
type Principal struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Attributes   map[string]string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role represents a named group of principals.
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// NewPrincipal carries the fields required to create a principal.
type NewPrincipal struct {
	Name     string `validate:"required,min=2,max=64"`
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Patch describes a partial principal mutation. Nil fields are left
// untouched. Password, when set, is the plaintext credential; the
// directory hashes it before storing.
type Patch struct {
	Email      *string
	Password   *string
	IsActive   *bool
	Attributes map[string]string
}

// Empty reports whether the patch mutates nothing.
func (p Patch) Empty() bool {
	return p.Email == nil && p.Password == nil && p.IsActive == nil && len(p.Attributes) == 0
}
