// Package lifecycle defines the stages of the store lifecycle that
// need a database: schema creation, migration and maintenance.
package lifecycle

import (
	"context"

	"github.com/gnames/gnabcd/pkg/config"
)

// SchemaManager defines the interface for PostgreSQL schema management.
// It uses GORM AutoMigrate to handle both initial schema creation and migrations.
type SchemaManager interface {
	// Create enables PostGIS and creates the initial schema with the
	// dataset listing view. Existing tables have to be dropped by the
	// caller.
	Create(ctx context.Context, cfg *config.Config) error

	// Migrate updates the database schema to the latest version using GORM AutoMigrate.
	// GORM handles schema version tracking automatically.
	Migrate(ctx context.Context, cfg *config.Config) error
}
