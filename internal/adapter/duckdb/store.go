// Package duckdb persists saved user locations in a DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
	"github.com/jonboulle/clockwork"
)

// Store implements domain.UserConfigStore on a user_locations table.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// Open opens the database at path. An empty path opens an in-memory database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}
	return db, nil
}

// NewStore creates a Store. Call CreateSchema before first use.
func NewStore(db *sql.DB, clock clockwork.Clock) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, clock: clock}
}

// CreateSchema creates the user_locations table if it does not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS user_locations (
			user_id VARCHAR PRIMARY KEY,
			location VARCHAR NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create user_locations: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, userID string) (string, bool, error) {
	var loc string
	err := s.db.QueryRowContext(ctx,
		"SELECT location FROM user_locations WHERE user_id = ?", userID,
	).Scan(&loc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get location for user %q: %w", userID, err)
	}
	return loc, true, nil
}

func (s *Store) Set(ctx context.Context, userID, location string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_locations (user_id, location, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			location = excluded.location,
			updated_at = excluded.updated_at;
	`, userID, location, s.clock.Now().UTC())
	if err != nil {
		return fmt.Errorf("set location for user %q: %w", userID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM user_locations WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("delete location for user %q: %w", userID, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
