package revocation

import (
	"context"
	"database/sql"
	"time"
)

type MySQLStore struct {
	DB *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{DB: db}
}

// Add replaces any previous entry for the same jti and prunes rows whose
// tokens have expired on their own, so logout traffic keeps the table small.
func (r *MySQLStore) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM revoked_tokens WHERE jti = ? OR expires_at <= ?
	`, jti, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
	`, jti, expiresAt.UTC())
	return err
}

func (r *MySQLStore) Contains(ctx context.Context, jti string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM revoked_tokens
			WHERE jti = ? AND expires_at > ?
		)
	`, jti, time.Now().UTC()).Scan(&exists)
	return exists, err
}
