package storage

import (
	"context"
	"database/sql"
	"time"
)

const usersMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS users (
    id uuid PRIMARY KEY,
    provider text NOT NULL,
    provider_user_id text NOT NULL,
    display_name text NOT NULL,
    email text,
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT users_provider_identity_unique
        UNIQUE (provider, provider_user_id)
);
`

// RunMigration applies the users schema. Idempotent.
func RunMigration(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, usersMigration)
	return err
}

// PostgresStore is the production UserStore backed by Postgres.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, provider, provider_user_id, display_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	`, u.ID, u.Provider, u.ProviderUserID, u.DisplayName, u.Email, u.CreatedAt, u.UpdatedAt)
	return err
}

func (s *PostgresStore) FindUserByProviderID(ctx context.Context, provider, providerUserID string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_user_id, display_name, email, created_at, updated_at
		FROM users
		WHERE provider = $1 AND provider_user_id = $2
	`, provider, providerUserID))
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_user_id, display_name, email, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id))
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now()
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET display_name = $2, email = NULLIF($3, ''), updated_at = $4
		WHERE id = $1
	`, u.ID, u.DisplayName, u.Email, u.UpdatedAt)
	return err
}

func (s *PostgresStore) scanUser(row *sql.Row) (*User, error) {
	var (
		u     User
		email sql.NullString
	)
	err := row.Scan(&u.ID, &u.Provider, &u.ProviderUserID, &u.DisplayName, &email, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	return &u, nil
}
