package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JinFuuMugen/coinshop/internal/models"
	"github.com/JinFuuMugen/coinshop/internal/resolver"
)

const (
	pingTimeout    = 5 * time.Second
	connectRetries = 5
)

var _ resolver.AccountLookup = (*Database)(nil)

// Database is the account directory backed by PostgreSQL.
type Database struct {
	conn *sql.DB
}

func New(ctx context.Context, dsn string) (*Database, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	ping := func() error {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return db.PingContext(ctx)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}

	return &Database{conn: db}, nil
}

func (db *Database) Close() error {
	return db.conn.Close()
}

// Lookup finds an account by handle, ignoring case.
func (db *Database) Lookup(ctx context.Context, handle string) (models.Account, error) {
	var acct models.Account
	err := db.conn.QueryRowContext(ctx,
		`SELECT handle FROM accounts WHERE lower(handle) = lower($1)`, handle).Scan(&acct.Handle)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, resolver.ErrNotFound
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("cannot look up account: %w", err)
	}
	return acct, nil
}

func (db *Database) AddAccount(ctx context.Context, handle string) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO accounts (handle)
		VALUES ($1)
		ON CONFLICT DO NOTHING
	`, handle)
	if err != nil {
		return fmt.Errorf("cannot store account: %w", err)
	}
	return nil
}
