package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
	_ "github.com/docgate/docgate/testing"
)

type stubStage struct {
	errs shared.ValidationErrors
	err  error
}

func (s stubStage) Validate(ctx context.Context, c Candidate) (shared.ValidationErrors, error) {
	return s.errs, s.err
}

func codes(errs shared.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestPipelineRunsEveryStage(t *testing.T) {
	pipeline := NewPipeline(
		stubStage{errs: shared.ValidationErrors{{Code: "First"}}},
		stubStage{errs: shared.ValidationErrors{{Code: "Second"}}},
		stubStage{},
	)
	errs, err := pipeline.Validate(context.Background(), Candidate{})
	require.NoError(t, err)
	require.Equal(t, []string{"First", "Second"}, codes(errs))
}

func TestPipelineAbortsOnInfrastructureFault(t *testing.T) {
	fault := errors.New("directory unreachable")
	pipeline := NewPipeline(
		stubStage{errs: shared.ValidationErrors{{Code: "First"}}},
		stubStage{err: fault},
	)
	errs, err := pipeline.Validate(context.Background(), Candidate{})
	require.ErrorIs(t, err, fault)
	require.Empty(t, errs)
}

func TestStructuralAndDomainViolationsAggregate(t *testing.T) {
	dir := directory.NewInMemory()
	pipeline := NewPipeline(Structural{Dir: dir}, EmailDomain{Domain: "example.com"})

	errs, err := pipeline.Validate(context.Background(), Candidate{Name: "x", Email: "joe@other.org"})
	require.NoError(t, err)
	require.Equal(t, []string{"InvalidUserName", "EmailDomainError"}, codes(errs))
}

func TestStructuralUniqueness(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewInMemory()
	bob, err := dir.Create(ctx, directory.NewPrincipal{Name: "Bob", Email: "bob@example.com", Password: "Secret123$"})
	require.NoError(t, err)

	stage := Structural{Dir: dir}

	// Another principal claiming Bob's name, case-folded, is rejected.
	errs, err := stage.Validate(ctx, Candidate{Name: "bob", Email: "new@example.com"})
	require.NoError(t, err)
	require.Equal(t, []string{"DuplicateUserName"}, codes(errs))

	// Bob editing himself keeps his own name and email without tripping
	// the uniqueness checks.
	errs, err = stage.Validate(ctx, Candidate{ID: bob.ID, Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestEmailDomainCaseInsensitive(t *testing.T) {
	stage := EmailDomain{Domain: "example.com"}

	errs, err := stage.Validate(context.Background(), Candidate{Email: "JOE@EXAMPLE.COM"})
	require.NoError(t, err)
	require.Empty(t, errs)

	errs, err = stage.Validate(context.Background(), Candidate{Email: "joe@example.org"})
	require.NoError(t, err)
	require.Equal(t, []string{"EmailDomainError"}, codes(errs))
}

func TestPasswordPolicyReportsEveryViolation(t *testing.T) {
	policy := DefaultPasswordPolicy()

	errs := policy.Validate("x")
	require.Equal(t, []string{
		"PasswordTooShort",
		"PasswordRequiresDigit",
		"PasswordRequiresUpper",
		"PasswordRequiresNonAlphanumeric",
	}, codes(errs))

	require.Empty(t, policy.Validate("Secret123$"))
}

func TestPasswordPolicyRespectsDisabledRules(t *testing.T) {
	policy := PasswordPolicy{MinLength: 8}
	require.Equal(t, []string{"PasswordTooShort"}, codes(policy.Validate("short")))
	require.Empty(t, policy.Validate("longenough"))
}
