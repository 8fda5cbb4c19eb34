// Package config provides configuration management for gnabcd.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Database: host, port, user, password, database, ssl_mode, batch_size
//   - Store: driver, sqlite_path
//   - BMS: listing_url, providers_url, landing_page_url, timeout,
//     requests_per_second
//   - PANGAEA: search_url, scroll_url
//   - ABCD: fields_file
//   - Crawl: max_retries, backoff_base, backoff_max, removal_policy,
//     grace_cycles
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - Crawl.DatasetIDs, Crawl.Limit, Crawl.Force (per-command)
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use GNABCD_ prefix with underscores for nesting:
//
//	GNABCD_DATABASE_HOST=localhost
//	GNABCD_STORE_DRIVER=sqlite
//	GNABCD_CRAWL_REMOVAL_POLICY=grace
//	GNABCD_JOBS_NUMBER=8
package config

import (
	"runtime"
	"time"
)

// Config represents the complete gnabcd configuration.
type Config struct {
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Store selects the persistent store backend.
	Store StoreConfig `mapstructure:"store" yaml:"store"`

	// BMS contains settings of the biodiversity metadata service.
	BMS BMSConfig `mapstructure:"bms" yaml:"bms"`

	// Pangaea contains settings of the PANGAEA search service, the second
	// source of ABCD archives.
	Pangaea PangaeaConfig `mapstructure:"pangaea" yaml:"pangaea"`

	// ABCD contains settings for parsing and mapping ABCD documents.
	ABCD ABCDConfig `mapstructure:"abcd" yaml:"abcd"`

	// Crawl contains settings specific to the crawl command.
	Crawl CrawlConfig `mapstructure:"crawl" yaml:"crawl"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of archives processed concurrently.
	// Default value is set accoring to the number of available threads.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// BatchSize is the number of unit updates sent to the database
	// in one round trip.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
}

// StoreConfig selects where synchronized datasets are kept.
type StoreConfig struct {
	// Driver is "postgres" (PostGIS) or "sqlite" (embedded, offline).
	Driver string `mapstructure:"driver" yaml:"driver"`

	// SQLitePath is the database file for the sqlite driver. Empty value
	// means <HomeDir>/.local/share/gnabcd/gnabcd.sqlite.
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// BMSConfig contains endpoints of the biodiversity metadata service.
type BMSConfig struct {
	// ListingURL returns the datasets with their archives. It has no
	// default and has to be set in config.yaml or GNABCD_BMS_LISTING_URL.
	ListingURL string `mapstructure:"listing_url" yaml:"listing_url"`

	// ProvidersURL returns data providers. Optional.
	ProvidersURL string `mapstructure:"providers_url" yaml:"providers_url"`

	// LandingPageURL generates a landing page when a dataset does not
	// provide one. Query parameters provider and dsa are appended.
	LandingPageURL string `mapstructure:"landing_page_url" yaml:"landing_page_url"`

	// Timeout limits every HTTP request, including archive downloads.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// RequestsPerSecond paces requests to BMS and providers.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// PangaeaConfig contains endpoints of the PANGAEA Elasticsearch
// service. Empty SearchURL disables the source. Requests use timeout
// and pace of BMS settings.
type PangaeaConfig struct {
	// SearchURL starts a scrolled search of ABCD datasets.
	SearchURL string `mapstructure:"search_url" yaml:"search_url"`

	// ScrollURL continues the search.
	ScrollURL string `mapstructure:"scroll_url" yaml:"scroll_url"`
}

// ABCDConfig contains ABCD mapping settings.
type ABCDConfig struct {
	// FieldsFile is the field catalog document. Empty value means
	// <ConfigDir>/abcd-fields.yaml.
	FieldsFile string `mapstructure:"fields_file" yaml:"fields_file"`
}

// CrawlConfig contains settings of the crawl cycle.
type CrawlConfig struct {
	// MaxRetries is the number of additional attempts for retryable
	// stages (listing, fetching, committing).
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// BackoffBase is the delay before the first retry. It doubles with
	// every following attempt.
	BackoffBase time.Duration `mapstructure:"backoff_base" yaml:"backoff_base"`

	// BackoffMax caps the retry delay.
	BackoffMax time.Duration `mapstructure:"backoff_max" yaml:"backoff_max"`

	// RemovalPolicy decides what happens to datasets that disappeared
	// from the listing: "keep", "immediate" or "grace".
	RemovalPolicy string `mapstructure:"removal_policy" yaml:"removal_policy"`

	// GraceCycles is the number of consecutive cycles a dataset has to be
	// missing before its records are removed under "grace" policy.
	GraceCycles int `mapstructure:"grace_cycles" yaml:"grace_cycles"`

	// DatasetIDs limits the crawl to the given datasets.
	// Empty slice means all listed datasets.
	DatasetIDs []string `mapstructure:"dataset_ids" yaml:"dataset_ids"`

	// Limit stops the crawl after the given number of archives.
	// Zero means no limit.
	Limit int `mapstructure:"limit" yaml:"limit"`

	// Force ignores version markers and processes every archive.
	Force bool `mapstructure:"force" yaml:"force"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Host:      "localhost",
			Port:      5432,
			User:      "postgres",
			Password:  "postgres",
			Database:  "gnabcd",
			SSLMode:   "disable",
			BatchSize: 5_000,
		},
		Store: StoreConfig{
			Driver: "postgres",
		},
		BMS: BMSConfig{
			Timeout:           10 * time.Minute,
			RequestsPerSecond: 5,
		},
		Crawl: CrawlConfig{
			MaxRetries:    3,
			BackoffBase:   2 * time.Second,
			BackoffMax:    time.Minute,
			RemovalPolicy: "keep",
			GraceCycles:   3,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(),
	}

	return res
}
