package config

import (
	"strings"
	"time"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptDatabaseHost sets the PostgreSQL server hostname or IP address.
func OptDatabaseHost(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Host", s) {
			c.Database.Host = s
		}
	}
}

// OptDatabasePort sets the PostgreSQL server port number.
func OptDatabasePort(i int) Option {
	return func(c *Config) {
		if isValidInt("Database Port", i) {
			c.Database.Port = i
		}
	}
}

// OptDatabaseUser sets the PostgreSQL database username.
func OptDatabaseUser(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database User", s) {
			c.Database.User = s
		}
	}
}

// OptDatabasePassword sets the PostgreSQL database password.
func OptDatabasePassword(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Password", s) {
			c.Database.Password = s
		}
	}
}

// OptDatabaseDatabase sets the PostgreSQL database name to connect to.
func OptDatabaseDatabase(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Database Name", s) {
			c.Database.Database = s
		}
	}
}

// OptDatabaseSSLMode sets the SSL connection mode.
// Valid values: "disable", "require", "verify-ca", "verify-full".
func OptDatabaseSSLMode(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Database.SSLMode", s) {
			c.Database.SSLMode = s
		}
	}
}

// OptDatabaseBatchSize sets the number of updates per database round trip.
func OptDatabaseBatchSize(i int) Option {
	return func(c *Config) {
		if isValidInt("Batch Size", i) {
			c.Database.BatchSize = i
		}
	}
}

// OptStoreDriver selects the store backend.
// Valid values: "postgres", "sqlite".
func OptStoreDriver(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Store.Driver", s) {
			c.Store.Driver = s
		}
	}
}

// OptStoreSQLitePath sets the database file of the sqlite driver.
func OptStoreSQLitePath(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("SQLite Path", s) {
			c.Store.SQLitePath = s
		}
	}
}

// OptBMSListingURL sets the URL of the archives listing.
func OptBMSListingURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("BMS Listing URL", s) {
			c.BMS.ListingURL = s
		}
	}
}

// OptBMSProvidersURL sets the URL of the providers listing.
func OptBMSProvidersURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("BMS Providers URL", s) {
			c.BMS.ProvidersURL = s
		}
	}
}

// OptBMSLandingPageURL sets the landing page generator URL.
func OptBMSLandingPageURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("BMS Landing Page URL", s) {
			c.BMS.LandingPageURL = s
		}
	}
}

// OptBMSTimeout sets the timeout of HTTP requests.
func OptBMSTimeout(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("BMS Timeout", d) {
			c.BMS.Timeout = d
		}
	}
}

// OptBMSRequestsPerSecond sets the pace of HTTP requests.
func OptBMSRequestsPerSecond(f float64) Option {
	return func(c *Config) {
		if isValidFloat("BMS Requests Per Second", f) {
			c.BMS.RequestsPerSecond = f
		}
	}
}

// OptPangaeaSearchURL sets the URL that starts a PANGAEA search.
func OptPangaeaSearchURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("PANGAEA Search URL", s) {
			c.Pangaea.SearchURL = s
		}
	}
}

// OptPangaeaScrollURL sets the URL that continues a PANGAEA search.
func OptPangaeaScrollURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("PANGAEA Scroll URL", s) {
			c.Pangaea.ScrollURL = s
		}
	}
}

// OptABCDFieldsFile sets the path to the field catalog document.
func OptABCDFieldsFile(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("ABCD Fields File", s) {
			c.ABCD.FieldsFile = s
		}
	}
}

// OptCrawlMaxRetries sets the number of retries of retryable stages.
// Zero disables retries.
func OptCrawlMaxRetries(i int) Option {
	return func(c *Config) {
		if isValidNonNegativeInt("Crawl Max Retries", i) {
			c.Crawl.MaxRetries = i
		}
	}
}

// OptCrawlBackoffBase sets the delay before the first retry.
func OptCrawlBackoffBase(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Crawl Backoff Base", d) {
			c.Crawl.BackoffBase = d
		}
	}
}

// OptCrawlBackoffMax sets the upper limit of retry delays.
func OptCrawlBackoffMax(d time.Duration) Option {
	return func(c *Config) {
		if isValidDuration("Crawl Backoff Max", d) {
			c.Crawl.BackoffMax = d
		}
	}
}

// OptCrawlRemovalPolicy sets the policy for datasets missing from listing.
// Valid values: "keep", "immediate", "grace".
func OptCrawlRemovalPolicy(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Crawl.RemovalPolicy", s) {
			c.Crawl.RemovalPolicy = s
		}
	}
}

// OptCrawlGraceCycles sets how many cycles a dataset can be missing
// before removal under "grace" policy.
func OptCrawlGraceCycles(i int) Option {
	return func(c *Config) {
		if isValidInt("Crawl Grace Cycles", i) {
			c.Crawl.GraceCycles = i
		}
	}
}

// OptCrawlDatasetIDs limits crawl to the given datasets.
// Runtime-only field - not in ToOptions().
func OptCrawlDatasetIDs(ss []string) Option {
	var ids []string
	for _, v := range ss {
		v = strings.TrimSpace(v)
		if v != "" {
			ids = append(ids, v)
		}
	}
	return func(c *Config) {
		if len(ids) > 0 {
			c.Crawl.DatasetIDs = ids
		}
	}
}

// OptCrawlLimit stops crawl after the given number of archives.
// Runtime-only field - not in ToOptions().
func OptCrawlLimit(i int) Option {
	return func(c *Config) {
		if isValidInt("Crawl Limit", i) {
			c.Crawl.Limit = i
		}
	}
}

// OptCrawlForce makes crawl ignore version markers.
// Runtime-only field - not in ToOptions().
func OptCrawlForce(b bool) Option {
	return func(c *Config) {
		c.Crawl.Force = b
	}
}

// OptLogLevel sets the logging level.
// Valid values: "debug", "info", "warn", "error".
func OptLogLevel(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Level", s) {
			c.Log.Level = s
		}
	}
}

// OptLogFormat sets the log output format.
// Valid values: "json", "text", "tint".
func OptLogFormat(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Format", s) {
			c.Log.Format = s
		}
	}
}

// OptLogDestination sets where logs are written.
// Valid values: "file", "stderr", "stdout".
func OptLogDestination(s string) Option {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return func(c *Config) {
		if isValidEnum("Log.Destination", s) {
			c.Log.Destination = s
		}
	}
}

// OptJobsNumber sets the number of archives processed concurrently.
// Default is runtime.NumCPU().
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if isValidInt("Jobs Number", i) {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory for config, cache, and log locations.
// Set once at startup from os.UserHomeDir().
// Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Directory", s) {
			c.HomeDir = s
		}
	}
}
