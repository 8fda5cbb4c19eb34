package iooptimize

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

// OrphanRemovalError is returned when removing orphan units fails.
func OrphanRemovalError(err error) error {
	msg := `Cannot remove units that belong to no dataset

<em>How to fix:</em>
  1. Verify the schema: <em>gnabcd migrate</em>
  2. Review PostgreSQL logs for errors
  3. Retry <em>gnabcd optimize</em>`

	return &gn.Error{
		Code: errcode.OptimizeOrphanError,
		Msg:  msg,
		Err:  fmt.Errorf("failed to remove orphan units: %w", err),
	}
}

// RecountError is returned when dataset unit counts cannot be refreshed.
func RecountError(err error) error {
	return &gn.Error{
		Code: errcode.OptimizeRecountError,
		Msg:  "Cannot recount units of datasets",
		Err:  fmt.Errorf("failed to recount units: %w", err),
	}
}

// VacuumError is returned when VACUUM ANALYZE fails.
func VacuumError(table string, err error) error {
	msg := `VACUUM ANALYZE failed for <em>%s</em>

VACUUM cannot run inside a transaction and needs table ownership.
Check permissions of the database user.`

	return &gn.Error{
		Code: errcode.OptimizeVacuumError,
		Msg:  msg,
		Vars: []any{table},
		Err:  fmt.Errorf("failed to vacuum %s: %w", table, err),
	}
}

// CacheCleanupError is returned when stale downloads cannot be removed.
func CacheCleanupError(dir string, err error) error {
	return &gn.Error{
		Code: errcode.CacheCleanupError,
		Msg:  "Cannot clean archive cache <em>%s</em>",
		Vars: []any{dir},
		Err:  fmt.Errorf("failed to clean %s: %w", dir, err),
	}
}
