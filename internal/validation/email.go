package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/docgate/docgate/internal/shared"
)

// EmailDomain rejects candidates whose email does not belong to the
// organization's accepted domain. This is the extension point for custom
// business rules: any number of stages like this one may be appended to
// the pipeline.
type EmailDomain struct {
	// Domain is the accepted suffix without the "@", e.g. "example.com".
	Domain string
}

// Validate implements Validator. Comparison is case-insensitive.
func (e EmailDomain) Validate(ctx context.Context, c Candidate) (shared.ValidationErrors, error) {
	suffix := "@" + strings.ToLower(e.Domain)
	if strings.HasSuffix(strings.ToLower(c.Email), suffix) {
		return nil, nil
	}
	return shared.ValidationErrors{{
		Code:    "EmailDomainError",
		Message: fmt.Sprintf("Only %s email addresses are allowed", e.Domain),
	}}, nil
}
