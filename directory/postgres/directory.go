// Package postgres implements the tokenward user directory over a
// PostgreSQL users table via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	tokenward "github.com/tokenward/tokenward"
)

// Schema is the users table the directory reads. Callers apply it with
// their own migration tooling.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    username      TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT NOT NULL DEFAULT '',
    active        BOOLEAN NOT NULL DEFAULT TRUE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const (
	findByUsernameQuery = `SELECT id, username, password_hash, roles, active
FROM users WHERE lower(username) = lower($1)`
	findByIDQuery = `SELECT id, username, password_hash, roles, active
FROM users WHERE id = $1`
)

// Directory is a tokenward.Directory backed by a pgx connection pool.
type Directory struct {
	pool *pgxpool.Pool
}

// New wraps an existing pool. The pool's lifecycle stays with the caller.
func New(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

// Connect dials a pool from a connection string and wraps it.
func Connect(ctx context.Context, dsn string) (*Directory, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect user directory: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping user directory: %w", err)
	}
	return &Directory{pool: pool}, nil
}

// Close releases the underlying pool.
func (d *Directory) Close() {
	d.pool.Close()
}

func (d *Directory) FindByUsername(ctx context.Context, username string) (tokenward.User, error) {
	return d.findOne(ctx, findByUsernameQuery, username)
}

func (d *Directory) FindByID(ctx context.Context, id string) (tokenward.User, error) {
	return d.findOne(ctx, findByIDQuery, id)
}

func (d *Directory) findOne(ctx context.Context, query, arg string) (tokenward.User, error) {
	var user tokenward.User
	err := d.pool.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Roles, &user.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return tokenward.User{}, tokenward.ErrUserNotFound
	}
	if err != nil {
		return tokenward.User{}, fmt.Errorf("query user directory: %w", err)
	}
	return user, nil
}
