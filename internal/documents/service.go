// Package documents is the protected-resource surface. Every edit is
// gated by the authorization engine against the document's current
// ownership attributes, fetched freshly per decision.
package documents

import (
	"context"

	"github.com/docgate/docgate/internal/authz"
)

// ResourceFinder adapts the document repository to the engine's resource
// lookup boundary.
type ResourceFinder struct {
	repo RepositoryPort
}

// NewResourceFinder builds the adapter.
func NewResourceFinder(repo RepositoryPort) ResourceFinder {
	return ResourceFinder{repo: repo}
}

// FindResource implements authz.ResourceFinder.
func (f ResourceFinder) FindResource(ctx context.Context, key string) (authz.Resource, error) {
	doc, err := f.repo.FindByTitle(ctx, key)
	if err != nil {
		return authz.Resource{}, err
	}
	return authz.Resource{Key: doc.Title, Author: doc.Author, Editor: doc.Editor}, nil
}

// Service handles document business logic.
type Service struct {
	repo   RepositoryPort
	engine *authz.Engine
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, engine *authz.Engine) *Service {
	return &Service{repo: repo, engine: engine}
}

// List returns all documents.
func (s *Service) List(ctx context.Context) ([]Document, error) {
	return s.repo.ListDocuments(ctx)
}

// AuthorizeEdit evaluates the edit policy for the named principal against
// the document identified by title.
func (s *Service) AuthorizeEdit(ctx context.Context, principalName, title string) (authz.Decision, error) {
	return s.engine.Evaluate(ctx, authz.PolicyEditDocument, principalName, title)
}

// Get fetches one document. Callers authorize first.
func (s *Service) Get(ctx context.Context, title string) (Document, error) {
	return s.repo.FindByTitle(ctx, title)
}
