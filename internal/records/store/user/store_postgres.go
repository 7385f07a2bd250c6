package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"aquita/internal/records/models"
	"aquita/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore persists identity records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the users table if it does not exist. Called at startup
// and by integration tests; production migrations may also own this.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			cedula     TEXT PRIMARY KEY,
			nombre     TEXT NOT NULL,
			apellido   TEXT NOT NULL,
			telefono   TEXT NOT NULL,
			estado     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure users schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, record models.IdentityRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (cedula, nombre, apellido, telefono, estado, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.NationalID, record.FirstName, record.LastName,
		record.Phone, record.Status, record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("cédula %s: %w", record.NationalID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (models.IdentityRecord, error) {
	var record models.IdentityRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT cedula, nombre, apellido, telefono, estado, created_at
		FROM users WHERE cedula = $1`,
		nationalID,
	).Scan(&record.NationalID, &record.FirstName, &record.LastName,
		&record.Phone, &record.Status, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.IdentityRecord{}, fmt.Errorf("cédula %s: %w", nationalID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.IdentityRecord{}, fmt.Errorf("find user: %w", err)
	}
	return record, nil
}
