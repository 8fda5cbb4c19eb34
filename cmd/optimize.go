/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/internal/iodb"
	"github.com/gnames/gnabcd/internal/iooptimize"
	"github.com/gnames/gnabcd/internal/iostore"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/spf13/cobra"
)

// getOptimizeCmd returns the optimize command.
func getOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Clean up and refresh statistics of the store",
		Long: `Optimize performs maintenance between crawls.

For the postgres store this command:
  1. Removes units that belong to no dataset
  2. Recounts units of datasets
  3. Removes stale downloads from the archive cache
  4. Runs VACUUM ANALYZE on units, datasets and crawl_runs

For the sqlite store only the archive cache is cleaned.

Do not run it while a crawl is in progress.

Examples:
  gnabcd optimize`,
		RunE: runOptimize,
	}

	return optimizeCmd
}

func runOptimize(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	if cfg.Store.Driver == iostore.DriverSQLite {
		files, size, err := iooptimize.CleanupArchives(
			config.ArchiveCacheDir(cfg.HomeDir), iooptimize.StaleAge,
		)
		if err != nil {
			gn.PrintErrorMessage(err)
			return err
		}
		gn.Info("Stale archives removed: %s (%s)",
			humanize.Comma(int64(files)), humanize.Bytes(uint64(size)))
		return nil
	}

	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	defer op.Close()

	if err := iooptimize.NewOptimizer(op).Optimize(ctx, cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	return nil
}
