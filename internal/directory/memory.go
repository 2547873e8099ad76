package directory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/docgate/docgate/internal/shared"
)

// InMemory is a deterministic directory used by tests and local tooling.
// Enumeration order is insertion order, matching what the admin listing
// contract expects from the real store.
type InMemory struct {
	mu         sync.Mutex
	principals []*Principal
	roles      []*Role
	members    map[memberKey]struct{}
	now        func() time.Time
}

type memberKey struct {
	principalID string
	roleID      string
}

// NewInMemory constructs an empty in-memory directory.
func NewInMemory() *InMemory {
	return &InMemory{
		members: make(map[memberKey]struct{}),
		now:     time.Now,
	}
}

// FindByID fetches a principal by ID.
func (d *InMemory) FindByID(ctx context.Context, id string) (*Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.principals {
		if p.ID == id {
			return clonePrincipal(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByName fetches a principal by display name, case-insensitively.
func (d *InMemory) FindByName(ctx context.Context, name string) (*Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.principals {
		if sameName(p.Name, name) {
			return clonePrincipal(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByEmail fetches a principal by email, case-insensitively.
func (d *InMemory) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.principals {
		if sameEmail(p.Email, email) {
			return clonePrincipal(p), nil
		}
	}
	return nil, shared.ErrNotFound
}

// List returns all principals in insertion order.
func (d *InMemory) List(ctx context.Context) ([]Principal, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Principal, 0, len(d.principals))
	for _, p := range d.principals {
		out = append(out, *clonePrincipal(p))
	}
	return out, nil
}

// Create validates, hashes and stores a new principal.
func (d *InMemory) Create(ctx context.Context, candidate NewPrincipal) (*Principal, error) {
	if errs := checkNewPrincipal(candidate); len(errs) > 0 {
		return nil, errs
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs shared.ValidationErrors
	for _, p := range d.principals {
		if sameName(p.Name, candidate.Name) {
			errs = append(errs, shared.ValidationError{Code: "DuplicateUserName", Message: "Name is already taken"})
			break
		}
	}
	for _, p := range d.principals {
		if sameEmail(p.Email, candidate.Email) {
			errs = append(errs, shared.ValidationError{Code: "DuplicateEmail", Message: "Email is already taken"})
			break
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	// MinCost keeps test and seed runs fast; this store never guards
	// production credentials.
	hash, err := bcrypt.GenerateFromPassword([]byte(candidate.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	now := d.now()
	p := &Principal{
		ID:           uuid.NewString(),
		Name:         candidate.Name,
		Email:        candidate.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	d.principals = append(d.principals, p)
	return clonePrincipal(p), nil
}

// Update applies a partial mutation.
func (d *InMemory) Update(ctx context.Context, id string, patch Patch) (*Principal, error) {
	if patch.Email != nil {
		if errs := checkEmail(*patch.Email); len(errs) > 0 {
			return nil, errs
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var target *Principal
	for _, p := range d.principals {
		if p.ID == id {
			target = p
			break
		}
	}
	if target == nil {
		return nil, shared.ErrNotFound
	}
	if patch.Email != nil {
		for _, p := range d.principals {
			if p.ID != id && sameEmail(p.Email, *patch.Email) {
				return nil, shared.ValidationErrors{{Code: "DuplicateEmail", Message: "Email is already taken"}}
			}
		}
		target.Email = *patch.Email
	}
	if patch.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = string(hash)
	}
	if patch.IsActive != nil {
		target.IsActive = *patch.IsActive
	}
	if len(patch.Attributes) > 0 {
		if target.Attributes == nil {
			target.Attributes = make(map[string]string, len(patch.Attributes))
		}
		for k, v := range patch.Attributes {
			target.Attributes[k] = v
		}
	}
	target.UpdatedAt = d.now()
	return clonePrincipal(target), nil
}

// Delete removes a principal and its memberships.
func (d *InMemory) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, p := range d.principals {
		if p.ID == id {
			d.principals = append(d.principals[:i], d.principals[i+1:]...)
			for key := range d.members {
				if key.principalID == id {
					delete(d.members, key)
				}
			}
			return nil
		}
	}
	return shared.ErrNotFound
}

// FindRoleByID fetches a role by ID.
func (d *InMemory) FindRoleByID(ctx context.Context, id string) (*Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.roles {
		if r.ID == id {
			role := *r
			return &role, nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindRoleByName fetches a role by name, case-insensitively.
func (d *InMemory) FindRoleByName(ctx context.Context, name string) (*Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.roles {
		if sameName(r.Name, name) {
			role := *r
			return &role, nil
		}
	}
	return nil, shared.ErrNotFound
}

// ListRoles returns all roles in insertion order.
func (d *InMemory) ListRoles(ctx context.Context) ([]Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Role, 0, len(d.roles))
	for _, r := range d.roles {
		out = append(out, *r)
	}
	return out, nil
}

// CreateRole stores a new role with a unique name.
func (d *InMemory) CreateRole(ctx context.Context, name string) (*Role, error) {
	if name == "" {
		return nil, shared.ValidationErrors{{Code: "InvalidRoleName", Message: "Role name is required"}}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.roles {
		if sameName(r.Name, name) {
			return nil, shared.ValidationErrors{{Code: "DuplicateRoleName", Message: "Role name is already taken"}}
		}
	}
	r := &Role{ID: uuid.NewString(), Name: name, CreatedAt: d.now()}
	d.roles = append(d.roles, r)
	role := *r
	return &role, nil
}

// DeleteRole removes a role and its memberships.
func (d *InMemory) DeleteRole(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, r := range d.roles {
		if r.ID == id {
			d.roles = append(d.roles[:i], d.roles[i+1:]...)
			for key := range d.members {
				if key.roleID == id {
					delete(d.members, key)
				}
			}
			return nil
		}
	}
	return shared.ErrNotFound
}

// IsMember reports current membership.
func (d *InMemory) IsMember(ctx context.Context, principalID, roleID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.members[memberKey{principalID, roleID}]
	return ok, nil
}

// ListMemberIDs returns the ids of the role's current members.
func (d *InMemory) ListMemberIDs(ctx context.Context, roleID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var ids []string
	for key := range d.members {
		if key.roleID == roleID {
			ids = append(ids, key.principalID)
		}
	}
	return ids, nil
}

// AddMember is idempotent.
func (d *InMemory) AddMember(ctx context.Context, principalID, roleID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[memberKey{principalID, roleID}] = struct{}{}
	return nil
}

// RemoveMember is idempotent.
func (d *InMemory) RemoveMember(ctx context.Context, principalID, roleID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.members, memberKey{principalID, roleID})
	return nil
}

func clonePrincipal(p *Principal) *Principal {
	out := *p
	if p.Attributes != nil {
		out.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out
}
