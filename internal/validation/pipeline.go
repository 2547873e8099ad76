// Package validation implements the composable identity-validation
// pipeline. Stages layer custom business rules on top of the baseline
// field checks; every stage always runs so a user sees all violated rules
// in one round-trip.
package validation

import (
	"context"

	"github.com/docgate/docgate/internal/shared"
)

// Candidate is a principal mutation under validation. ID is empty for a
// creation and set for an edit, so uniqueness checks can exclude the
// record being edited.
type Candidate struct {
	ID    string
	Name  string
	Email string
}

// Validator is one pipeline stage. Rule violations come back as data;
// the error return is reserved for infrastructure faults (the directory
// being unreachable), which abort the run.
type Validator interface {
	Validate(ctx context.Context, c Candidate) (shared.ValidationErrors, error)
}

// Pipeline runs an ordered chain of validators. A failing stage never
// short-circuits the stages after it; all violations are concatenated.
type Pipeline struct {
	stages []Validator
}

// NewPipeline builds a pipeline from the given stages, in order.
func NewPipeline(stages ...Validator) Pipeline {
	return Pipeline{stages: stages}
}

// Validate runs every stage and returns the union of their violations.
func (p Pipeline) Validate(ctx context.Context, c Candidate) (shared.ValidationErrors, error) {
	var all shared.ValidationErrors
	for _, stage := range p.stages {
		errs, err := stage.Validate(ctx, c)
		if err != nil {
			return nil, err
		}
		all = append(all, errs...)
	}
	return all, nil
}
