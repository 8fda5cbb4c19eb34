// Package iostore implements store.Store for PostgreSQL (with PostGIS)
// and for embedded SQLite.
package iostore

import (
	"context"
	"fmt"

	"github.com/gnames/gnabcd/internal/iodb"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/store"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// New opens the store selected by configuration. PostgreSQL schema has
// to be created beforehand with 'gnabcd create'.
func New(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath())
	case DriverPostgres, "":
		op := iodb.NewPgxOperator()
		if err := op.Connect(ctx, &cfg.Database); err != nil {
			return nil, err
		}
		res, err := NewPostgres(op, cfg.Database.BatchSize)
		if err != nil {
			op.Close()
			return nil, err
		}
		return res, nil
	default:
		return nil, OpenError(cfg.Store.Driver, "",
			fmt.Errorf("unknown store driver %q", cfg.Store.Driver))
	}
}
