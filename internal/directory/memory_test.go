package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docgate/docgate/internal/shared"
	_ "github.com/docgate/docgate/testing"
)

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemory()
	_, err := dir.Create(ctx, NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"})
	require.NoError(t, err)

	// Both collisions are reported together, case-folded.
	_, err = dir.Create(ctx, NewPrincipal{Name: "BOB", Email: "BOB@EXAMPLE.COM", Password: "Secret123$"})
	verrs, ok := shared.AsValidationErrors(err)
	require.True(t, ok)
	require.Len(t, verrs, 2)
	require.Equal(t, "DuplicateUserName", verrs[0].Code)
	require.Equal(t, "DuplicateEmail", verrs[1].Code)
}

func TestCreateValidatesFields(t *testing.T) {
	_, err := NewInMemory().Create(context.Background(), NewPrincipal{Name: "x", Email: "not-an-email"})
	verrs, ok := shared.AsValidationErrors(err)
	require.True(t, ok)
	codes := make([]string, len(verrs))
	for i, e := range verrs {
		codes[i] = e.Code
	}
	require.Equal(t, []string{"InvalidUserName", "InvalidEmail", "PasswordRequired"}, codes)
}

func TestUpdateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemory()
	_, err := dir.Create(ctx, NewPrincipal{Name: "Alice", Email: "alice@example.com", Password: "Secret123$"})
	require.NoError(t, err)
	bob, err := dir.Create(ctx, NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"})
	require.NoError(t, err)

	taken := "Alice@Example.com"
	_, err = dir.Update(ctx, bob.ID, Patch{Email: &taken})
	verrs, ok := shared.AsValidationErrors(err)
	require.True(t, ok)
	require.Equal(t, "DuplicateEmail", verrs[0].Code)
}

func TestDeleteCascadesMemberships(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemory()
	bob, err := dir.Create(ctx, NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"})
	require.NoError(t, err)
	role, err := dir.CreateRole(ctx, "Editors")
	require.NoError(t, err)
	require.NoError(t, dir.AddMember(ctx, bob.ID, role.ID))

	require.NoError(t, dir.Delete(ctx, bob.ID))
	isMember, err := dir.IsMember(ctx, bob.ID, role.ID)
	require.NoError(t, err)
	require.False(t, isMember)
}

func TestDeleteRoleCascadesMemberships(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemory()
	bob, err := dir.Create(ctx, NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"})
	require.NoError(t, err)
	role, err := dir.CreateRole(ctx, "Editors")
	require.NoError(t, err)
	require.NoError(t, dir.AddMember(ctx, bob.ID, role.ID))

	require.NoError(t, dir.DeleteRole(ctx, role.ID))
	isMember, err := dir.IsMember(ctx, bob.ID, role.ID)
	require.NoError(t, err)
	require.False(t, isMember)
}

func TestLookupsAreCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemory()
	bob, err := dir.Create(ctx, NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"})
	require.NoError(t, err)

	byName, err := dir.FindByName(ctx, "bOb")
	require.NoError(t, err)
	require.Equal(t, bob.ID, byName.ID)

	byEmail, err := dir.FindByEmail(ctx, "BOB@example.COM")
	require.NoError(t, err)
	require.Equal(t, bob.ID, byEmail.ID)

	role, err := dir.CreateRole(ctx, "Editors")
	require.NoError(t, err)
	byRoleName, err := dir.FindRoleByName(ctx, "editors")
	require.NoError(t, err)
	require.Equal(t, role.ID, byRoleName.ID)
}

func TestAttributeMerge(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemory()
	bob, err := dir.Create(ctx, NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"})
	require.NoError(t, err)

	_, err = dir.Update(ctx, bob.ID, Patch{Attributes: map[string]string{AttrCity: "London"}})
	require.NoError(t, err)
	updated, err := dir.Update(ctx, bob.ID, Patch{Attributes: map[string]string{AttrQualification: "Engineer"}})
	require.NoError(t, err)
	require.Equal(t, "London", updated.Attributes[AttrCity])
	require.Equal(t, "Engineer", updated.Attributes[AttrQualification])
}

func TestFindMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	dir := NewInMemory()
	_, err := dir.FindByID(ctx, "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = dir.FindRoleByID(ctx, "missing")
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, dir.Delete(ctx, "missing"), shared.ErrNotFound)
}
