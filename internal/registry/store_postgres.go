package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"wrldrelief/pkg/sentinel"
)

// PostgresStore persists disaster records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the disasters table.
const Schema = `
CREATE TABLE IF NOT EXISTS disasters (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    location    TEXT NOT NULL DEFAULT '',
    severity    INTEGER NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    active      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
)`

func (s *PostgresStore) Save(ctx context.Context, d *Disaster) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disasters (id, name, location, severity, description, started_at, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.Name, d.Location, d.Severity, d.Description, d.StartedAt, d.Active, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert disaster: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Disaster, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, location, severity, description, started_at, active, created_at, updated_at
		FROM disasters WHERE id = $1`, id)
	return scanDisaster(row)
}

func (s *PostgresStore) Update(ctx context.Context, d *Disaster) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE disasters
		SET name = $2, location = $3, severity = $4, description = $5, started_at = $6, active = $7, updated_at = $8
		WHERE id = $1`,
		d.ID, d.Name, d.Location, d.Severity, d.Description, d.StartedAt, d.Active, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update disaster: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update disaster: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Disaster, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location, severity, description, started_at, active, created_at, updated_at
		FROM disasters ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list disasters: %w", err)
	}
	defer rows.Close()

	var out []*Disaster
	for rows.Next() {
		d, err := scanDisaster(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDisaster(row rowScanner) (*Disaster, error) {
	var d Disaster
	err := row.Scan(&d.ID, &d.Name, &d.Location, &d.Severity, &d.Description,
		&d.StartedAt, &d.Active, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan disaster: %w", err)
	}
	return &d, nil
}
