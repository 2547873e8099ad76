package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docgate/docgate/internal/shared"
)

// RepositoryPort defines data access methods for documents.
type RepositoryPort interface {
	FindByTitle(ctx context.Context, title string) (Document, error)
	ListDocuments(ctx context.Context) ([]Document, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByTitle fetches one document by its lookup key.
func (r *Repository) FindByTitle(ctx context.Context, title string) (Document, error) {
	var doc Document
	err := r.pool.QueryRow(ctx,
		`SELECT title, author, editor FROM documents WHERE title = $1`, title).
		Scan(&doc.Title, &doc.Author, &doc.Editor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, shared.ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: %v", shared.ErrDirectoryUnavailable, err)
	}
	return doc, nil
}

// ListDocuments returns all documents.
func (r *Repository) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `SELECT title, author, editor FROM documents ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrDirectoryUnavailable, err)
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.Title, &doc.Author, &doc.Editor); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}
