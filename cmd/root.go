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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/internal/iofs"
	"github.com/gnames/gnabcd/internal/iologger"
	app "github.com/gnames/gnabcd/pkg"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir   string
	opts      []config.Option
	cfg       *config.Config
	logCloser io.Closer
)

// getRootCmd returns the root command with all subcommands attached.
// A new instance is created on every call, so tests do not share state.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "gnabcd",
		Short:   "GNabcd synchronizes ABCD biodiversity archives with a spatial database",
		Long: `GNabcd crawls ABCD (Access to Biological Collection Data) archives
published by a biodiversity metadata service (BMS) and keeps a spatial
database in sync with them.

Every crawl cycle:
  - lists datasets and their XML archives from the BMS (and PANGAEA
    when pangaea.search_url is set)
  - downloads archives whose version changed since the last cycle
  - parses ABCD 2.06 and 2.1 documents into units
  - maps units to the field catalog (abcd-fields.yaml)
  - inserts, updates and deletes units atomically per dataset

Storage backends:
  - postgres: PostgreSQL with PostGIS (default)
  - sqlite: embedded database file for offline use

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (GNABCD_*)
  3. Config file (~/.config/gnabcd/config.yaml)
  4. Built-in defaults

Examples:
  gnabcd create
  gnabcd crawl
  gnabcd optimize
  gnabcd inspect archive.zip`,
		PersistentPreRunE: bootstrap,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
		RunE:          runRoot,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Remove the automatic "gnabcd version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for gnabcd")

	rootCmd.AddCommand(
		getCreateCmd(),
		getMigrateCmd(),
		getCrawlCmd(),
		getOptimizeCmd(),
		getInspectCmd(),
	)

	return rootCmd
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := getRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if logCloser, err = iologger.Init(config.LogDir(homeDir), defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	if err = iofs.EnsureFieldsFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info(
		"Configuration files are available at <em>%s</em>",
		config.ConfigDir(homeDir),
	)

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	if err = reconfigureLogging(cfg); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"store", cfg.Store.Driver,
	)

	return nil
}

// reconfigureLogging reinitializes the logger with the loaded
// configuration and closes the log file of the bootstrap logger.
func reconfigureLogging(cfg *config.Config) error {
	closer, err := iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log)
	if err != nil {
		return err
	}
	if logCloser != nil {
		logCloser.Close()
	}
	logCloser = closer
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	versionFlag(cmd)
	return cmd.Help()
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields included in config.ToOptions().
	v.SetEnvPrefix("GNABCD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Database configuration
	v.BindEnv("database.host", "GNABCD_DATABASE_HOST")
	v.BindEnv("database.port", "GNABCD_DATABASE_PORT")
	v.BindEnv("database.user", "GNABCD_DATABASE_USER")
	v.BindEnv("database.password", "GNABCD_DATABASE_PASSWORD")
	v.BindEnv("database.database", "GNABCD_DATABASE_DATABASE")
	v.BindEnv("database.ssl_mode", "GNABCD_DATABASE_SSL_MODE")
	v.BindEnv("database.batch_size", "GNABCD_DATABASE_BATCH_SIZE")

	// Store configuration
	v.BindEnv("store.driver", "GNABCD_STORE_DRIVER")
	v.BindEnv("store.sqlite_path", "GNABCD_STORE_SQLITE_PATH")

	// BMS configuration
	v.BindEnv("bms.listing_url", "GNABCD_BMS_LISTING_URL")
	v.BindEnv("bms.providers_url", "GNABCD_BMS_PROVIDERS_URL")
	v.BindEnv("bms.landing_page_url", "GNABCD_BMS_LANDING_PAGE_URL")
	v.BindEnv("bms.timeout", "GNABCD_BMS_TIMEOUT")
	v.BindEnv("bms.requests_per_second", "GNABCD_BMS_REQUESTS_PER_SECOND")

	// PANGAEA configuration
	v.BindEnv("pangaea.search_url", "GNABCD_PANGAEA_SEARCH_URL")
	v.BindEnv("pangaea.scroll_url", "GNABCD_PANGAEA_SCROLL_URL")

	// ABCD configuration
	v.BindEnv("abcd.fields_file", "GNABCD_ABCD_FIELDS_FILE")

	// Crawl configuration
	v.BindEnv("crawl.max_retries", "GNABCD_CRAWL_MAX_RETRIES")
	v.BindEnv("crawl.backoff_base", "GNABCD_CRAWL_BACKOFF_BASE")
	v.BindEnv("crawl.backoff_max", "GNABCD_CRAWL_BACKOFF_MAX")
	v.BindEnv("crawl.removal_policy", "GNABCD_CRAWL_REMOVAL_POLICY")
	v.BindEnv("crawl.grace_cycles", "GNABCD_CRAWL_GRACE_CYCLES")

	// Log configuration
	v.BindEnv("log.level", "GNABCD_LOG_LEVEL")
	v.BindEnv("log.format", "GNABCD_LOG_FORMAT")
	v.BindEnv("log.destination", "GNABCD_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "GNABCD_JOBS_NUMBER")

	v.AutomaticEnv()
}
