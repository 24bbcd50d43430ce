package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps each document as one jsonb row in folio.documents.
// Update locks the row with SELECT ... FOR UPDATE inside a transaction so
// concurrent read-modify-write cycles on the same document serialize the
// same way the file provider's keyed mutex does.
//
// Ownership model: the pool is owned by the caller (app); Close is a no-op.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Schema documents the expected table. Migrations are applied by EnsureSchema
// at startup; the statement is idempotent.
const Schema = `
CREATE SCHEMA IF NOT EXISTS folio;
CREATE TABLE IF NOT EXISTS folio.documents (
    name       text PRIMARY KEY,
    doc        jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
);`

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("docstore: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	if err != nil {
		return fmt.Errorf("docstore: ensure schema: %w", err)
	}
	return nil
}

// Read returns the full document or ErrNotFound.
func (s *PostgresStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}

	var doc []byte
	err := s.pool.QueryRow(ctx, `
		SELECT doc FROM folio.documents WHERE name = $1
	`, name).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("docstore: %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("docstore: read %q: %w", name, err)
	}
	return doc, nil
}

// Write upserts the full document.
func (s *PostgresStore) Write(ctx context.Context, name string, doc []byte) error {
	if err := validName(name); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO folio.documents (name, doc, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, name, doc)
	if err != nil {
		return fmt.Errorf("docstore: write %q: %w", name, err)
	}
	return nil
}

// Update runs fn with the row locked for the duration of the transaction.
func (s *PostgresStore) Update(ctx context.Context, name string, fn UpdateFunc) error {
	if err := validName(name); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("docstore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current []byte
	err = tx.QueryRow(ctx, `
		SELECT doc FROM folio.documents WHERE name = $1 FOR UPDATE
	`, name).Scan(&current)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("docstore: lock %q: %w", name, err)
		}
		current = nil
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO folio.documents (name, doc, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (name) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, name, next)
	if err != nil {
		return fmt.Errorf("docstore: write %q: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("docstore: commit %q: %w", name, err)
	}
	return nil
}

// DeleteAll removes every document row.
func (s *PostgresStore) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM folio.documents`)
	if err != nil {
		return fmt.Errorf("docstore: delete all: %w", err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the app.
func (s *PostgresStore) Close() error { return nil }
