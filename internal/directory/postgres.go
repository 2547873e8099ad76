package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/docgate/docgate/internal/shared"
)

// Postgres is the pgx-backed directory implementation. Password hashing
// happens here so the hash never leaves the store boundary in plaintext form.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres constructs a Postgres directory.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const principalColumns = `id, name, email, password_hash, attributes, is_active, created_at, updated_at`

// FindByID fetches a principal by ID.
func (d *Postgres) FindByID(ctx context.Context, id string) (*Principal, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	return scanPrincipal(row)
}

// FindByName fetches a principal by display name, case-insensitively.
func (d *Postgres) FindByName(ctx context.Context, name string) (*Principal, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE lower(name) = lower($1)`, name)
	return scanPrincipal(row)
}

// FindByEmail fetches a principal by email, case-insensitively.
func (d *Postgres) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE lower(email) = lower($1)`, email)
	return scanPrincipal(row)
}

// List returns all principals in enumeration (creation) order.
func (d *Postgres) List(ctx context.Context) ([]Principal, error) {
	rows, err := d.pool.Query(ctx, `SELECT `+principalColumns+` FROM principals ORDER BY created_at, id`)
	if err != nil {
		return nil, wrapInfra(err)
	}
	defer rows.Close()
	var principals []Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		principals = append(principals, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapInfra(err)
	}
	return principals, nil
}

// Create validates baseline field rules, hashes the credential and inserts
// the principal. Uniqueness violations surface as structural errors.
func (d *Postgres) Create(ctx context.Context, candidate NewPrincipal) (*Principal, error) {
	if errs := checkNewPrincipal(candidate); len(errs) > 0 {
		return nil, errs
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(candidate.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	row := d.pool.QueryRow(ctx, `
		INSERT INTO principals (id, name, email, password_hash, attributes, is_active)
		VALUES ($1, $2, $3, $4, '{}'::jsonb, TRUE)
		RETURNING `+principalColumns,
		id, candidate.Name, candidate.Email, string(hash))
	p, err := scanPrincipal(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return p, nil
}

// Update applies a partial mutation. A supplied password is hashed here;
// callers must have validated it first.
func (d *Postgres) Update(ctx context.Context, id string, patch Patch) (*Principal, error) {
	if patch.Empty() {
		return d.FindByID(ctx, id)
	}
	if patch.Email != nil {
		if errs := checkEmail(*patch.Email); len(errs) > 0 {
			return nil, errs
		}
	}
	var hash *string
	if patch.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		s := string(h)
		hash = &s
	}
	var attrs []byte
	if len(patch.Attributes) > 0 {
		var err error
		attrs, err = json.Marshal(patch.Attributes)
		if err != nil {
			return nil, err
		}
	}
	row := d.pool.QueryRow(ctx, `
		UPDATE principals SET
			email         = COALESCE($2, email),
			password_hash = COALESCE($3, password_hash),
			is_active     = COALESCE($4, is_active),
			attributes    = CASE WHEN $5::jsonb IS NULL THEN attributes ELSE attributes || $5::jsonb END,
			updated_at    = NOW()
		WHERE id = $1
		RETURNING `+principalColumns,
		id, patch.Email, hash, patch.IsActive, attrs)
	p, err := scanPrincipal(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return p, nil
}

// Delete removes a principal and its memberships.
func (d *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM principals WHERE id = $1`, id)
	if err != nil {
		return wrapInfra(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindRoleByID fetches a role by ID.
func (d *Postgres) FindRoleByID(ctx context.Context, id string) (*Role, error) {
	row := d.pool.QueryRow(ctx, `SELECT id, name, created_at FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

// FindRoleByName fetches a role by name, case-insensitively.
func (d *Postgres) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	row := d.pool.QueryRow(ctx, `SELECT id, name, created_at FROM roles WHERE lower(name) = lower($1)`, name)
	return scanRole(row)
}

// ListRoles returns all roles in creation order.
func (d *Postgres) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY created_at, id`)
	if err != nil {
		return nil, wrapInfra(err)
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapInfra(err)
	}
	return roles, nil
}

// CreateRole inserts a new role.
func (d *Postgres) CreateRole(ctx context.Context, name string) (*Role, error) {
	if name == "" {
		return nil, shared.ValidationErrors{{Code: "InvalidRoleName", Message: "Role name is required"}}
	}
	row := d.pool.QueryRow(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2) RETURNING id, name, created_at`, uuid.NewString(), name)
	r, err := scanRole(row)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	return r, nil
}

// DeleteRole removes a role and its memberships.
func (d *Postgres) DeleteRole(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return wrapInfra(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// IsMember reports whether the principal currently belongs to the role.
func (d *Postgres) IsMember(ctx context.Context, principalID, roleID string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM principal_roles WHERE principal_id = $1 AND role_id = $2)`,
		principalID, roleID).Scan(&exists)
	if err != nil {
		return false, wrapInfra(err)
	}
	return exists, nil
}

// ListMemberIDs returns the ids of the role's current members in one query.
func (d *Postgres) ListMemberIDs(ctx context.Context, roleID string) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT principal_id FROM principal_roles WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, wrapInfra(err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapInfra(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapInfra(err)
	}
	return ids, nil
}

// AddMember adds the principal to the role; adding an existing member is a no-op.
func (d *Postgres) AddMember(ctx context.Context, principalID, roleID string) error {
	_, err := d.pool.Exec(ctx,
		`INSERT INTO principal_roles (principal_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		principalID, roleID)
	if err != nil {
		return wrapInfra(err)
	}
	return nil
}

// RemoveMember removes the principal from the role; removing a non-member is a no-op.
func (d *Postgres) RemoveMember(ctx context.Context, principalID, roleID string) error {
	_, err := d.pool.Exec(ctx,
		`DELETE FROM principal_roles WHERE principal_id = $1 AND role_id = $2`,
		principalID, roleID)
	if err != nil {
		return wrapInfra(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(row rowScanner) (*Principal, error) {
	var p Principal
	var attrs []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PasswordHash, &attrs, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, wrapInfra(err)
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func scanRole(row rowScanner) (*Role, error) {
	var r Role
	if err := row.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, wrapInfra(err)
	}
	return &r, nil
}

// mapUniqueViolation converts Postgres unique-index violations into the
// structural validation codes the admin workflows report to users.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "principals_name_key":
			return shared.ValidationErrors{{Code: "DuplicateUserName", Message: "Name is already taken"}}
		case "principals_email_key":
			return shared.ValidationErrors{{Code: "DuplicateEmail", Message: "Email is already taken"}}
		case "roles_name_key":
			return shared.ValidationErrors{{Code: "DuplicateRoleName", Message: "Role name is already taken"}}
		}
	}
	return err
}

// wrapInfra tags non-row-level failures so callers can tell a broken
// collaborator apart from a rejected mutation.
func wrapInfra(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	return fmt.Errorf("%w: %v", shared.ErrDirectoryUnavailable, err)
}
