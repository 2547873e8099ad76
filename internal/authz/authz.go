// Package authz contains the resource-based authorization engine. A policy
// is a named, ordered list of requirements evaluated conjunctively against
// the authenticated principal and the dynamic ownership attributes of a
// protected resource. Evaluation is a pure decision over its inputs; the
// only I/O is the single resource fetch at the finder boundary.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docgate/docgate/internal/shared"
)

// Reason tags why a decision failed. It is for the orchestration layer
// only; end users see an undifferentiated denial.
type Reason string

const (
	// ReasonResourceNotFound means the resource key resolved to nothing.
	ReasonResourceNotFound Reason = "resource-not-found"
	// ReasonRequirementFailed means a policy requirement was not satisfied.
	ReasonRequirementFailed Reason = "requirement-failed"
)

// Decision is the outcome of evaluating a policy.
type Decision struct {
	Succeeded bool
	Reason    Reason
	// Requirement names the first failed requirement, empty on success
	// or when the resource was missing.
	Requirement string
}

// Resource is the read-only attribute bag a requirement inspects. Author
// and Editor hold principal display names.
type Resource struct {
	Key    string
	Author string
	Editor string
}

// Requirement is one named condition contributing to a policy. The flags
// say which ownership relations satisfy it; a requirement with neither
// flag set never succeeds.
type Requirement struct {
	Name         string
	AllowAuthors bool
	AllowEditors bool
}

// Satisfied reports whether the principal fulfils this requirement for the
// resource. Name comparison is case-insensitive by design: identity names
// are case-preserving but not case-distinguishing.
func (r Requirement) Satisfied(principal string, resource Resource) bool {
	if principal == "" {
		return false
	}
	if r.AllowAuthors && strings.EqualFold(resource.Author, principal) {
		return true
	}
	if r.AllowEditors && strings.EqualFold(resource.Editor, principal) {
		return true
	}
	return false
}

// Policy is a named set of requirements. Access succeeds only when every
// requirement succeeds.
type Policy struct {
	Name         string
	Requirements []Requirement
}

// Evaluate folds over the requirements, stopping at the first failure.
func (p Policy) Evaluate(principal string, resource Resource) Decision {
	for _, req := range p.Requirements {
		if !req.Satisfied(principal, resource) {
			return Decision{Reason: ReasonRequirementFailed, Requirement: req.Name}
		}
	}
	return Decision{Succeeded: true}
}

// ResourceFinder resolves a resource key to its current ownership
// attributes. It must return shared.ErrNotFound for unknown keys and is
// consulted freshly on every evaluation.
type ResourceFinder interface {
	FindResource(ctx context.Context, key string) (Resource, error)
}

// Engine evaluates named policies against (principal, resource) pairs.
type Engine struct {
	policies map[string]Policy
	finder   ResourceFinder
}

// NewEngine builds an engine over a fixed policy set.
func NewEngine(policies []Policy, finder ResourceFinder) *Engine {
	byName := make(map[string]Policy, len(policies))
	for _, p := range policies {
		byName[p.Name] = p
	}
	return &Engine{policies: byName, finder: finder}
}

// Evaluate resolves the resource and runs the named policy. A missing
// resource fails closed with ReasonResourceNotFound; an unregistered
// policy name is a programming error, not a decision.
func (e *Engine) Evaluate(ctx context.Context, policyName, principal, resourceKey string) (Decision, error) {
	policy, ok := e.policies[policyName]
	if !ok {
		return Decision{}, fmt.Errorf("authz: unknown policy %q", policyName)
	}
	resource, err := e.finder.FindResource(ctx, resourceKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Decision{Reason: ReasonResourceNotFound}, nil
		}
		return Decision{}, err
	}
	return policy.Evaluate(principal, resource), nil
}
