package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresSchema creates the table used by [Postgres].
const PostgresSchema = `CREATE TABLE IF NOT EXISTS revoked_tokens (
	fingerprint CHAR(64) PRIMARY KEY,
	expires_at  TIMESTAMPTZ NOT NULL
)`

const (
	containsQuery = `SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE fingerprint = $1)`
	revokeQuery   = `INSERT INTO revoked_tokens (fingerprint, expires_at) VALUES ($1, $2)
ON CONFLICT (fingerprint) DO NOTHING`
	purgeQuery = `DELETE FROM revoked_tokens WHERE expires_at < $1`
)

// DBTX is the subset of *sql.DB used by [Postgres].
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres persists revocations in the revoked_tokens table.
type Postgres struct {
	db DBTX
}

// NewPostgres wraps db. Open db with the "pgx" driver.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema runs [PostgresSchema].
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Contains looks up the token fingerprint.
func (p *Postgres) Contains(ctx context.Context, token string) (bool, error) {
	var exists bool
	if err := p.db.QueryRowContext(ctx, containsQuery, Fingerprint(token)).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return exists, nil
}

// Revoke inserts the fingerprint; repeats are no-ops.
func (p *Postgres) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if _, err := p.db.ExecContext(ctx, revokeQuery, Fingerprint(token), expiresAt.UTC()); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Purge deletes rows whose token expired before cutoff and returns how many were removed.
func (p *Postgres) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, purgeQuery, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res.RowsAffected()
}
