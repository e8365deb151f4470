package userdir

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"wrldrelief/pkg/sentinel"
)

// PostgresStore persists directory records in PostgreSQL. Roles are stored as
// a text array; the address is the primary key.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the users table. Applied by migrations or test setup.
const Schema = `
CREATE TABLE IF NOT EXISTS directory_users (
    address        TEXT PRIMARY KEY,
    display_name   TEXT NOT NULL,
    verified       BOOLEAN NOT NULL DEFAULT FALSE,
    roles          TEXT[] NOT NULL DEFAULT '{}',
    total_donated  BIGINT NOT NULL DEFAULT 0,
    total_received BIGINT NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
)`

func (s *PostgresStore) Save(ctx context.Context, user *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO directory_users
		    (address, display_name, verified, roles, total_donated, total_received, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.Address, user.DisplayName, user.Verified, pq.Array(rolesToSlice(user.Roles)),
		user.TotalDonated, user.TotalReceived, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, addr string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT address, display_name, verified, roles, total_donated, total_received, created_at, updated_at
		FROM directory_users WHERE address = $1`, addr)

	var user User
	var roles []string
	err := row.Scan(&user.Address, &user.DisplayName, &user.Verified, pq.Array(&roles),
		&user.TotalDonated, &user.TotalReceived, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	user.Roles = rolesFromSlice(roles)
	return &user, nil
}

func (s *PostgresStore) Update(ctx context.Context, user *User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE directory_users
		SET display_name = $2, verified = $3, roles = $4,
		    total_donated = $5, total_received = $6, updated_at = $7
		WHERE address = $1`,
		user.Address, user.DisplayName, user.Verified, pq.Array(rolesToSlice(user.Roles)),
		user.TotalDonated, user.TotalReceived, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func rolesToSlice(roles map[Role]bool) []string {
	out := make([]string, 0, len(roles))
	for role, ok := range roles {
		if ok {
			out = append(out, string(role))
		}
	}
	return out
}

func rolesFromSlice(roles []string) map[Role]bool {
	out := make(map[Role]bool, len(roles))
	for _, role := range roles {
		out[Role(role)] = true
	}
	return out
}
