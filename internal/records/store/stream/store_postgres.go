package stream

import (
	"context"
	"database/sql"
	"fmt"

	"aquita/internal/records/models"
)

// PostgresStore persists stream submissions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed stream store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the streams table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS streams (
			id             TEXT PRIMARY KEY,
			enlace         TEXT NOT NULL,
			ciudad         TEXT NOT NULL,
			cedula_usuario TEXT,
			estado         TEXT NOT NULL,
			created_at     TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure streams schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, submission models.StreamSubmission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO streams (id, enlace, ciudad, cedula_usuario, estado, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		submission.ID, submission.Link, submission.City,
		nullIfEmpty(submission.OwnerNationalID), submission.Status, submission.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stream: %w", err)
	}
	return nil
}

// List returns all submissions, oldest first.
func (s *PostgresStore) List(ctx context.Context) ([]models.StreamSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, enlace, ciudad, COALESCE(cedula_usuario, ''), estado, created_at
		FROM streams ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	defer rows.Close()

	var submissions []models.StreamSubmission
	for rows.Next() {
		var sub models.StreamSubmission
		if err := rows.Scan(&sub.ID, &sub.Link, &sub.City,
			&sub.OwnerNationalID, &sub.Status, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	return submissions, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
