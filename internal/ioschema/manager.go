// Package ioschema implements SchemaManager interface for
// database schema management. This is an impure I/O package
// that wraps GORM AutoMigrate functionality.
package ioschema

import (
	"context"
	"log/slog"

	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/db"
	"github.com/gnames/gnabcd/pkg/lifecycle"
	"github.com/gnames/gnabcd/pkg/schema"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// manager implements the lifecycle.SchemaManager interface
// using GORM AutoMigrate.
type manager struct {
	operator db.Operator
}

// NewManager creates a new SchemaManager.
func NewManager(op db.Operator) lifecycle.SchemaManager {
	return &manager{operator: op}
}

// Create enables PostGIS, creates the schema using GORM AutoMigrate
// and builds the dataset listing view.
func (m *manager) Create(
	ctx context.Context,
	cfg *config.Config,
) error {
	pool := m.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	_, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis")
	if err != nil {
		return ExtensionError("postgis", err)
	}

	if err = m.migrate(); err != nil {
		return CreateSchemaError(err)
	}

	slog.Info("Schema created", "database", cfg.Database.Database)
	return m.createView(ctx)
}

// Migrate updates the database schema to the latest version
// using GORM AutoMigrate. The listing view is rebuilt, because
// it depends on migrated tables.
func (m *manager) Migrate(
	ctx context.Context,
	cfg *config.Config,
) error {
	pool := m.operator.Pool()
	if pool == nil {
		return NotConnectedError()
	}

	_, err := pool.Exec(ctx, "DROP VIEW IF EXISTS "+schema.ListingView)
	if err != nil {
		return ViewError(schema.ListingView, err)
	}

	if err = m.migrate(); err != nil {
		return MigrateSchemaError(err)
	}

	slog.Info("Schema migrated", "database", cfg.Database.Database)
	return m.createView(ctx)
}

func (m *manager) migrate() error {
	db := stdlib.OpenDBFromPool(m.operator.Pool())
	defer db.Close()

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{Conn: db}),
		&gorm.Config{},
	)
	if err != nil {
		return GORMConnectionError(err)
	}

	return schema.Migrate(gormDB)
}

func (m *manager) createView(ctx context.Context) error {
	_, err := m.operator.Pool().Exec(ctx, schema.ListingViewSQL)
	if err != nil {
		return ViewError(schema.ListingView, err)
	}
	return nil
}
