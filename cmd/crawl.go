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
	"os"
	"os/signal"
	"syscall"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/internal/iocrawl"
	"github.com/spf13/cobra"
)

// getCrawlCmd returns the crawl command.
func getCrawlCmd() *cobra.Command {
	crawlCmd := &cobra.Command{
		Use:   "crawl",
		Short: "Synchronize ABCD archives with the store",
		Long: `Crawl runs one synchronization cycle.

This command:
  1. Loads the field catalog (abcd-fields.yaml)
  2. Lists datasets and their archives from the BMS and PANGAEA
  3. Skips archives with unchanged version markers
  4. Downloads and parses the rest concurrently
  5. Commits inserted, updated and deleted units per dataset
  6. Applies the removal policy to datasets missing from the listing

A failed archive does not stop the crawl, it is reported at the end.
The command fails if the listing cannot be read or if every archive
failed. Interrupt (Ctrl-C) cancels the crawl, committed datasets stay
as they are and the rest is retried on the next run.

Removal policies:
  keep       datasets missing from the listing are kept
  immediate  their units are deleted in the same cycle
  grace      units are deleted after crawl.grace_cycles missing cycles

Examples:
  gnabcd crawl
  gnabcd crawl --dataset-ids 1101,1102
  gnabcd crawl --limit 10 --jobs 2
  gnabcd crawl --force --removal-policy immediate`,
		RunE: runCrawl,
	}

	crawlCmd.Flags().StringSliceP("dataset-ids", "d", nil,
		"crawl only the given datasets (comma separated)")
	crawlCmd.Flags().IntP("limit", "l", 0,
		"process at most the given number of archives")
	crawlCmd.Flags().BoolP("force", "f", false,
		"process archives even if their version did not change")
	crawlCmd.Flags().IntP("jobs", "j", 0,
		"number of archives processed concurrently")
	crawlCmd.Flags().StringP("removal-policy", "r", "",
		"keep, immediate or grace")
	crawlCmd.Flags().StringP("store", "s", "",
		"store driver: postgres or sqlite")

	return crawlCmd
}

func runCrawl(cmd *cobra.Command, _ []string) error {
	applyFlags(cmd,
		datasetsFlag, limitFlag, forceFlag,
		jobsFlag, removalFlag, storeFlag,
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	gn.Info("Crawling <em>%s</em> into %s store",
		cfg.BMS.ListingURL, cfg.Store.Driver)

	summary, err := iocrawl.New(cfg, iocrawl.OptProgress(true)).Run(ctx)
	if !summary.Finished.IsZero() {
		iocrawl.Report(summary)
	}
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	return nil
}
