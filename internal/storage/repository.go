package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Queryable is satisfied by both *sql.DB and *sql.Tx so repository helpers
// can run inside or outside a transaction.
type Queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BaseRepository provides shared plumbing for repositories.
type BaseRepository struct {
	db *DB
}

// NewBaseRepository creates a base repository over the given connection.
func NewBaseRepository(db *DB) BaseRepository {
	return BaseRepository{db: db}
}

// DB returns the underlying connection.
func (r *BaseRepository) DB() *DB {
	return r.db
}

// Now returns the current UTC time for row timestamps.
func (r *BaseRepository) Now() time.Time {
	return time.Now().UTC()
}

// Transaction runs fn inside a database transaction.
func (r *BaseRepository) Transaction(fn func(tx *sql.Tx) error) error {
	return r.db.Transaction(fn)
}

// GenerateID creates a new UUID primary key.
func GenerateID() string {
	return uuid.NewString()
}
