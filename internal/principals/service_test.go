package principals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
	"github.com/docgate/docgate/internal/validation"
	_ "github.com/docgate/docgate/testing"
)

func newTestService(t *testing.T) (*Service, *directory.InMemory) {
	t.Helper()
	dir := directory.NewInMemory()
	pipeline := validation.NewPipeline(
		validation.Structural{Dir: dir},
		validation.EmailDomain{Domain: "example.com"},
	)
	return NewService(dir, pipeline, validation.DefaultPasswordPolicy()), dir
}

func mustCreate(t *testing.T, svc *Service, name, email, password string) *directory.Principal {
	t.Helper()
	p, verrs, err := svc.Create(context.Background(), name, email, password)
	require.NoError(t, err)
	require.Empty(t, verrs)
	return p
}

func codes(errs shared.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	created := mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "Bob", got.Name)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.PasswordHash), []byte("Secret123$")))
}

func TestCreateAggregatesAllViolations(t *testing.T) {
	svc, _ := newTestService(t)
	mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	p, verrs, err := svc.Create(context.Background(), "Bob", "bob@other.org", "weak")
	require.NoError(t, err)
	require.Nil(t, p)
	require.Equal(t, []string{
		"DuplicateUserName",
		"EmailDomainError",
		"PasswordTooShort",
		"PasswordRequiresDigit",
		"PasswordRequiresUpper",
		"PasswordRequiresNonAlphanumeric",
	}, codes(verrs))
}

func TestEditEmailOnlyCommits(t *testing.T) {
	svc, dir := newTestService(t)
	bob := mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	verrs, err := svc.Edit(context.Background(), bob.ID, "robert@example.com", "")
	require.NoError(t, err)
	require.Empty(t, verrs)

	stored, err := dir.FindByID(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Equal(t, "robert@example.com", stored.Email)
	require.Equal(t, bob.PasswordHash, stored.PasswordHash)
}

func TestEditRejectedPasswordHoldsBackEmail(t *testing.T) {
	svc, dir := newTestService(t)
	bob := mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	// The email change is valid on its own, but the rejected credential
	// blocks the whole mutation.
	verrs, err := svc.Edit(context.Background(), bob.ID, "robert@example.com", "x")
	require.NoError(t, err)
	require.Contains(t, codes(verrs), "PasswordTooShort")

	stored, err := dir.FindByID(context.Background(), bob.ID)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", stored.Email)
	require.Equal(t, bob.PasswordHash, stored.PasswordHash)
}

func TestEditReportsEmailAndPasswordViolationsTogether(t *testing.T) {
	svc, _ := newTestService(t)
	bob := mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	verrs, err := svc.Edit(context.Background(), bob.ID, "bob@other.org", "Short1$")
	require.NoError(t, err)
	require.Contains(t, codes(verrs), "EmailDomainError")
	require.NotContains(t, codes(verrs), "PasswordTooShort")

	verrs, err = svc.Edit(context.Background(), bob.ID, "bob@other.org", "x")
	require.NoError(t, err)
	got := codes(verrs)
	require.Contains(t, got, "EmailDomainError")
	require.Contains(t, got, "PasswordTooShort")
}

func TestEditValidPasswordRotatesHash(t *testing.T) {
	svc, dir := newTestService(t)
	bob := mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	verrs, err := svc.Edit(context.Background(), bob.ID, "bob@example.com", "Rotated456!")
	require.NoError(t, err)
	require.Empty(t, verrs)

	stored, err := dir.FindByID(context.Background(), bob.ID)
	require.NoError(t, err)
	require.NotEqual(t, bob.PasswordHash, stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("Rotated456!")))
}

func TestEditMissingPrincipal(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Edit(context.Background(), "no-such-id", "x@example.com", "")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService(t)
	bob := mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	require.NoError(t, svc.Delete(context.Background(), bob.ID))
	_, err := svc.Get(context.Background(), bob.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetAttributes(t *testing.T) {
	svc, _ := newTestService(t)
	bob := mustCreate(t, svc, "Bob", "bob@example.com", "Secret123$")

	updated, err := svc.SetAttributes(context.Background(), bob.ID, map[string]string{
		directory.AttrCity:          "London",
		directory.AttrQualification: "Engineer",
	})
	require.NoError(t, err)
	require.Equal(t, "London", updated.Attributes[directory.AttrCity])

	// A second write merges rather than replaces.
	updated, err = svc.SetAttributes(context.Background(), bob.ID, map[string]string{directory.AttrCity: "Paris"})
	require.NoError(t, err)
	require.Equal(t, "Paris", updated.Attributes[directory.AttrCity])
	require.Equal(t, "Engineer", updated.Attributes[directory.AttrQualification])
}
