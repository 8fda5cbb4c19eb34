package ioschema

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// NotConnectedError is returned when the operator has no pool.
func NotConnectedError() error {
	return &gn.Error{
		Code: errcode.DBNotConnectedError,
		Msg:  "Schema operation attempted without database connection",
		Err:  fmt.Errorf("schema: not connected to database"),
	}
}

func GORMConnectionError(err error) error {
	return &gn.Error{
		Code: errcode.SchemaGORMConnectionError,
		Msg:  "Cannot open GORM session on the connection pool",
		Err:  fmt.Errorf("gorm open: %w", err),
	}
}

// CreateSchemaError is returned when AutoMigrate fails on an empty
// database.
func CreateSchemaError(err error) error {
	msg := `Cannot create gnabcd tables

Check that the database user owns the <em>public</em> schema,
and see PostgreSQL logs for details.`

	return &gn.Error{
		Code: errcode.SchemaCreateError,
		Msg:  msg,
		Err:  fmt.Errorf("create schema: %w", err),
	}
}

// MigrateSchemaError is returned when AutoMigrate cannot bring existing
// tables to the current models.
func MigrateSchemaError(err error) error {
	msg := `Cannot migrate gnabcd tables

Synchronized units are not changed. If a column type changed between
versions, recreate the schema with <em>gnabcd create --force</em> and
crawl again.`

	return &gn.Error{
		Code: errcode.SchemaMigrateError,
		Msg:  msg,
		Err:  fmt.Errorf("migrate schema: %w", err),
	}
}

// ExtensionError is returned when a required extension cannot be
// enabled.
func ExtensionError(ext string, err error) error {
	msg := `Cannot enable <em>%s</em> extension

Unit geometries need PostGIS. Install it for your PostgreSQL version
and run <em>CREATE EXTENSION postgis</em> as a superuser, or use the
sqlite store (GNABCD_STORE_DRIVER=sqlite).`

	return &gn.Error{
		Code: errcode.SchemaExtensionError,
		Msg:  msg,
		Vars: []any{ext},
		Err:  fmt.Errorf("enable extension %s: %w", ext, err),
	}
}

func ViewError(view string, err error) error {
	return &gn.Error{
		Code: errcode.SchemaViewError,
		Msg:  "Cannot build <em>%s</em> view",
		Vars: []any{view},
		Err:  fmt.Errorf("build view %s: %w", view, err),
	}
}
