// Package iooptimize implements Optimizer interface for maintenance of
// the PostGIS store. This is an impure I/O package.
package iooptimize

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/db"
	"github.com/gnames/gnabcd/pkg/errcode"
	"github.com/gnames/gnabcd/pkg/lifecycle"
)

// optimizer implements the Optimizer interface.
type optimizer struct {
	operator db.Operator
}

// NewOptimizer creates a new Optimizer.
func NewOptimizer(op db.Operator) lifecycle.Optimizer {
	return &optimizer{
		operator: op,
	}
}

// Optimize runs maintenance steps:
//  1. Remove units that belong to no dataset
//  2. Recount units of datasets
//  3. Remove stale downloads from the archive cache
//  4. Run VACUUM ANALYZE on tables changed by crawls
func (o *optimizer) Optimize(
	ctx context.Context,
	cfg *config.Config,
) error {
	pool := o.operator.Pool()
	if pool == nil {
		return &gn.Error{
			Code: errcode.DBNotConnectedError,
			Msg:  "Database not connected",
			Err:  fmt.Errorf("optimize: pool is nil"),
		}
	}

	gn.Info("Step 1/4: Removing orphan units")
	orphans, err := removeOrphanUnits(ctx, pool)
	if err != nil {
		return err
	}

	gn.Info("Step 2/4: Recounting dataset units")
	recounted, err := recountUnits(ctx, pool)
	if err != nil {
		return err
	}

	gn.Info("Step 3/4: Cleaning archive cache")
	files, size, err := CleanupArchives(
		config.ArchiveCacheDir(cfg.HomeDir), StaleAge,
	)
	if err != nil {
		return err
	}

	gn.Info("Step 4/4: Running VACUUM ANALYZE")
	if err = vacuumAnalyze(ctx, pool); err != nil {
		return err
	}

	gn.Info(`Optimization complete
Orphan units removed: %s, datasets recounted: %s
Stale archives removed: %s (%s)`,
		humanize.Comma(orphans),
		humanize.Comma(recounted),
		humanize.Comma(int64(files)),
		humanize.Bytes(uint64(size)),
	)
	return nil
}
