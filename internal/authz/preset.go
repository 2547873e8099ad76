package authz

// Policy names evaluated by the document surface.
const (
	PolicyEditDocument = "documents.edit"
)

// DefaultPolicies returns the built-in policy set. Document edits are open
// to the resource's author or editor.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			Name: PolicyEditDocument,
			Requirements: []Requirement{
				{Name: "authors-and-editors", AllowAuthors: true, AllowEditors: true},
			},
		},
	}
}
