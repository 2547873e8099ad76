package roles

import "github.com/docgate/docgate/internal/shared"

// MembershipAction says which side of a reconciliation delta an outcome
// belongs to.
type MembershipAction string

const (
	// ActionAdd grants membership.
	ActionAdd MembershipAction = "add"
	// ActionRemove revokes membership.
	ActionRemove MembershipAction = "remove"
)

// MembershipOutcome reports the result of one attempted add or remove.
// Exactly one of the shapes applies: applied (Succeeded), skipped because
// the principal id no longer resolves (Skipped — the admin's view was
// stale, a benign no-op), or failed with structured errors.
type MembershipOutcome struct {
	PrincipalID string                  `json:"principal_id"`
	Action      MembershipAction        `json:"action"`
	Succeeded   bool                    `json:"succeeded"`
	Skipped     bool                    `json:"skipped,omitempty"`
	Errors      shared.ValidationErrors `json:"errors,omitempty"`
}

// FlattenErrors collects every outcome error into one user-facing list.
func FlattenErrors(outcomes []MembershipOutcome) shared.ValidationErrors {
	var all shared.ValidationErrors
	for _, o := range outcomes {
		all = append(all, o.Errors...)
	}
	return all
}
