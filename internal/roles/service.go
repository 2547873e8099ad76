// Package roles implements role administration and the bulk membership
// reconciler. A reconciliation batch applies a desired add-set and
// remove-set against the directory with per-item failure isolation: one
// bad id never aborts the rest of the batch.
package roles

import (
	"context"
	"errors"

	"github.com/docgate/docgate/internal/directory"
	"github.com/docgate/docgate/internal/shared"
)

// Service handles role business logic.
type Service struct {
	dir directory.Directory
}

// NewService builds Service instance.
func NewService(dir directory.Directory) *Service {
	return &Service{dir: dir}
}

// ListRoles returns all roles in directory order.
func (s *Service) ListRoles(ctx context.Context) ([]directory.Role, error) {
	return s.dir.ListRoles(ctx)
}

// GetRole fetches one role.
func (s *Service) GetRole(ctx context.Context, id string) (*directory.Role, error) {
	return s.dir.FindRoleByID(ctx, id)
}

// CreateRole creates a role via the directory.
func (s *Service) CreateRole(ctx context.Context, name string) (*directory.Role, error) {
	return s.dir.CreateRole(ctx, name)
}

// DeleteRole deletes a role via the directory.
func (s *Service) DeleteRole(ctx context.Context, id string) error {
	return s.dir.DeleteRole(ctx, id)
}

// Reconcile applies the add-set then the remove-set against the role's
// membership. Every id is attempted; outcomes are reported in the order
// the ids were supplied, adds before removes. An id that no longer
// resolves to a principal is recorded as a benign skip. Only a missing
// role aborts the batch.
func (s *Service) Reconcile(ctx context.Context, roleID string, idsToAdd, idsToRemove []string) ([]MembershipOutcome, error) {
	role, err := s.dir.FindRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	outcomes := make([]MembershipOutcome, 0, len(idsToAdd)+len(idsToRemove))
	for _, id := range idsToAdd {
		outcomes = append(outcomes, s.apply(ctx, role.ID, id, ActionAdd))
	}
	for _, id := range idsToRemove {
		outcomes = append(outcomes, s.apply(ctx, role.ID, id, ActionRemove))
	}
	return outcomes, nil
}

func (s *Service) apply(ctx context.Context, roleID, principalID string, action MembershipAction) MembershipOutcome {
	outcome := MembershipOutcome{PrincipalID: principalID, Action: action}
	if _, err := s.dir.FindByID(ctx, principalID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			outcome.Skipped = true
			return outcome
		}
		outcome.Errors = operationErrors(err)
		return outcome
	}
	var err error
	if action == ActionAdd {
		err = s.dir.AddMember(ctx, principalID, roleID)
	} else {
		err = s.dir.RemoveMember(ctx, principalID, roleID)
	}
	if err != nil {
		outcome.Errors = operationErrors(err)
		return outcome
	}
	outcome.Succeeded = true
	return outcome
}

// operationErrors converts a directory failure into the structured form
// the admin surface renders. Transient faults are ordinary per-item
// failures here, never a batch abort.
func operationErrors(err error) shared.ValidationErrors {
	if verrs, ok := shared.AsValidationErrors(err); ok {
		return verrs
	}
	return shared.ValidationErrors{{Code: "MembershipOperationError", Message: shared.UserSafeMessage(err)}}
}

// MembersAndNonMembers partitions the full principal list by membership
// in the given role, preserving the directory's enumeration order. It is
// the read-side counterpart used to render add/remove candidate lists.
// Membership is fetched once per call, not once per principal.
func (s *Service) MembersAndNonMembers(ctx context.Context, roleID string) (members, nonMembers []directory.Principal, err error) {
	role, err := s.dir.FindRoleByID(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	principals, err := s.dir.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	memberIDs, err := s.dir.ListMemberIDs(ctx, role.ID)
	if err != nil {
		return nil, nil, err
	}
	isMember := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		isMember[id] = struct{}{}
	}
	for _, p := range principals {
		if _, ok := isMember[p.ID]; ok {
			members = append(members, p)
		} else {
			nonMembers = append(nonMembers, p)
		}
	}
	return members, nonMembers, nil
}

// MemberNames returns the display names of the role's current members, in
// directory order. Used to decorate role listings.
func (s *Service) MemberNames(ctx context.Context, roleID string) ([]string, error) {
	members, _, err := s.MembersAndNonMembers(ctx, roleID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names, nil
}
