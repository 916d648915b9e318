// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Simplici0/buffet/internal/db"
	"github.com/Simplici0/buffet/internal/migrations"
	"github.com/Simplici0/buffet/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a migrated SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New wraps an already opened and migrated database.
func New(database *sql.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Open opens the database at dbPath, applies pending migrations and returns a Store.
func Open(dbPath string) (*Store, error) {
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return New(database), nil
}

// DB exposes the underlying handle for seeding and health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) stamp() int64 {
	return s.now().UnixMilli()
}

func checkAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows for %s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}

// Ping checks that the database still answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
