// Package postgres implements the user and verification stores on Postgres.
//
// The repositories share a database/sql handle backed by the pgx stdlib
// driver rather than a pgxpool.Pool: goose applies migrations through
// *sql.DB and go-sqlmock fakes *sql.DB, so one handle type serves
// migrations, production queries and unit tests.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dtroode/shopwise-auth/database"
)

const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second

	uniqueViolationCode = "23505"
)

// Connection is a pooled Postgres handle shared by the repositories. Pool
// limits are set on the embedded *sql.DB instead of a pgxpool config.
type Connection struct {
	*sql.DB
}

// NewConnection opens a pool to dsn, checks it and applies migrations.
func NewConnection(ctx context.Context, dsn string) (*Connection, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return &Connection{DB: db}, nil
}

// NewConnectionFromDB wraps an existing handle without migrating it.
func NewConnectionFromDB(db *sql.DB) *Connection {
	return &Connection{DB: db}
}

// Close closes the pool.
func (c *Connection) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
