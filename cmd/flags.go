package cmd

import (
	"fmt"
	"os"

	app "github.com/gnames/gnabcd/pkg"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/spf13/cobra"
)

type funcFlag func(cmd *cobra.Command)

func versionFlag(cmd *cobra.Command) {
	hasVersionFlag, _ := cmd.Flags().GetBool("version")
	if hasVersionFlag {
		fmt.Printf("\nversion: %s\nbuild: %s\n\n", app.Version, app.Build)
		os.Exit(0)
	}
}

func jobsFlag(cmd *cobra.Command) {
	i, _ := cmd.Flags().GetInt("jobs")
	if i > 0 {
		opts = append(opts, config.OptJobsNumber(i))
	}
}

func datasetsFlag(cmd *cobra.Command) {
	ss, _ := cmd.Flags().GetStringSlice("dataset-ids")
	if len(ss) > 0 {
		opts = append(opts, config.OptCrawlDatasetIDs(ss))
	}
}

func limitFlag(cmd *cobra.Command) {
	i, _ := cmd.Flags().GetInt("limit")
	if i > 0 {
		opts = append(opts, config.OptCrawlLimit(i))
	}
}

func forceFlag(cmd *cobra.Command) {
	b, _ := cmd.Flags().GetBool("force")
	if b {
		opts = append(opts, config.OptCrawlForce(b))
	}
}

func removalFlag(cmd *cobra.Command) {
	s, _ := cmd.Flags().GetString("removal-policy")
	if s != "" {
		opts = append(opts, config.OptCrawlRemovalPolicy(s))
	}
}

func storeFlag(cmd *cobra.Command) {
	s, _ := cmd.Flags().GetString("store")
	if s != "" {
		opts = append(opts, config.OptStoreDriver(s))
	}
}

// applyFlags collects options from the given flags and updates the
// configuration with them.
func applyFlags(cmd *cobra.Command, flags ...funcFlag) {
	for _, f := range flags {
		f(cmd)
	}
	if cfg != nil {
		cfg.Update(opts)
	}
}
