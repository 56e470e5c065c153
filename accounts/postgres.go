package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/tokenAuth"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

// PostgresSchema creates the users table read by [Postgres].
const PostgresSchema = `CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE
)`

// DBTX is the subset of *sql.DB used by [Postgres].
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres stores accounts in the users table.
type Postgres struct {
	db DBTX
}

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// OpenPostgres opens dsn with the pgx driver and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}

// EnsureSchema runs [PostgresSchema].
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (tokenAuth.UserRecord, error) {
	query :=
		`SELECT id, username, email, first_name, last_name, password_hash, role, is_active
		 FROM users WHERE username = $1`

	var u tokenAuth.UserRecord
	err := p.db.QueryRowContext(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &u.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tokenAuth.UserRecord{}, tokenAuth.ErrUserNotFound
		}
		return tokenAuth.UserRecord{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, user tokenAuth.UserRecord) (tokenAuth.UserRecord, error) {
	query :=
		`INSERT INTO users (username, email, first_name, last_name, password_hash, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	err := p.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.PasswordHash, user.Role, user.IsActive,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return tokenAuth.UserRecord{}, tokenAuth.ErrAccountExists
		}
		return tokenAuth.UserRecord{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (p *Postgres) UpdatePasswordHash(ctx context.Context, userID int64, encodedHash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`

	res, err := p.db.ExecContext(ctx, query, encodedHash, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return tokenAuth.ErrUserNotFound
	}
	return nil
}
