// Package db defines the contract of PostgreSQL connection management.
package db

import (
	"context"

	"github.com/gnames/gnabcd/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator defines the interface for basic database management operations.
// It provides connection lifecycle management and exposes the pgxpool.Pool
// for the schema manager and the PostgreSQL store, which run their own
// SQL (transactions, batches, CopyFrom).
type Operator interface {
	// Connect establishes a connection pool to the database.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close closes the database connection pool.
	Close() error

	// Pool returns the underlying pgxpool.Pool.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists in the database.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the database has any tables in the public schema.
	// PostGIS spatial_ref_sys does not count.
	HasTables(ctx context.Context) (bool, error)

	// DropAllTables drops all tables in the public schema except
	// PostGIS spatial_ref_sys.
	DropAllTables(ctx context.Context) error
}
