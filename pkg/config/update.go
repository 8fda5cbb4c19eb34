package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gnames/gn"
)

// Update applies a slice of Option functions to the Config.
// This is the only way to modify a Config after creation.
// Invalid options are rejected with warnings - config remains in valid state.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the Config to a slice of Option functions.
// Only includes persistent fields appropriate for config.yaml.
// Excludes runtime-only fields (HomeDir, Crawl.DatasetIDs, Crawl.Limit,
// Crawl.Force).
func (c *Config) ToOptions() []Option {
	var res []Option
	var s string
	var i int
	var d time.Duration
	s = c.Database.Host
	if s != "" {
		res = append(res, OptDatabaseHost(s))
	}
	i = c.Database.Port
	if i > 0 {
		res = append(res, OptDatabasePort(i))
	}
	s = c.Database.User
	if s != "" {
		res = append(res, OptDatabaseUser(s))
	}
	s = c.Database.Password
	if s != "" {
		res = append(res, OptDatabasePassword(s))
	}
	s = c.Database.Database
	if s != "" {
		res = append(res, OptDatabaseDatabase(s))
	}
	s = c.Database.SSLMode
	if s != "" {
		res = append(res, OptDatabaseSSLMode(s))
	}
	i = c.Database.BatchSize
	if i > 0 {
		res = append(res, OptDatabaseBatchSize(i))
	}

	s = c.Store.Driver
	if s != "" {
		res = append(res, OptStoreDriver(s))
	}
	s = c.Store.SQLitePath
	if s != "" {
		res = append(res, OptStoreSQLitePath(s))
	}

	s = c.BMS.ListingURL
	if s != "" {
		res = append(res, OptBMSListingURL(s))
	}
	s = c.BMS.ProvidersURL
	if s != "" {
		res = append(res, OptBMSProvidersURL(s))
	}
	s = c.BMS.LandingPageURL
	if s != "" {
		res = append(res, OptBMSLandingPageURL(s))
	}
	d = c.BMS.Timeout
	if d > 0 {
		res = append(res, OptBMSTimeout(d))
	}
	if c.BMS.RequestsPerSecond > 0 {
		res = append(res, OptBMSRequestsPerSecond(c.BMS.RequestsPerSecond))
	}

	s = c.Pangaea.SearchURL
	if s != "" {
		res = append(res, OptPangaeaSearchURL(s))
	}
	s = c.Pangaea.ScrollURL
	if s != "" {
		res = append(res, OptPangaeaScrollURL(s))
	}

	s = c.ABCD.FieldsFile
	if s != "" {
		res = append(res, OptABCDFieldsFile(s))
	}

	i = c.Crawl.MaxRetries
	if i > 0 {
		res = append(res, OptCrawlMaxRetries(i))
	}
	d = c.Crawl.BackoffBase
	if d > 0 {
		res = append(res, OptCrawlBackoffBase(d))
	}
	d = c.Crawl.BackoffMax
	if d > 0 {
		res = append(res, OptCrawlBackoffMax(d))
	}
	s = c.Crawl.RemovalPolicy
	if s != "" {
		res = append(res, OptCrawlRemovalPolicy(s))
	}
	i = c.Crawl.GraceCycles
	if i > 0 {
		res = append(res, OptCrawlGraceCycles(i))
	}

	s = c.Log.Format
	if s != "" {
		res = append(res, OptLogFormat(s))
	}
	s = c.Log.Level
	if s != "" {
		res = append(res, OptLogLevel(s))
	}
	s = c.Log.Destination
	if s != "" {
		res = append(res, OptLogDestination(s))
	}

	i = c.JobsNumber
	if i > 0 {
		res = append(res, OptJobsNumber(i))
	}
	return res
}

func isValidString(name, s string) bool {
	res := s != ""
	if !res {
		gn.Warn("<em>%s</em> cannot be empty, ignoring", name)
	}
	return res
}

func isValidInt(name string, i int) bool {
	res := i > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %d", name, i)
	}
	return res
}

func isValidNonNegativeInt(name string, i int) bool {
	res := i >= 0
	if !res {
		gn.Warn("<em>%s</em> cannot be negative, ignoring %d", name, i)
	}
	return res
}

func isValidFloat(name string, f float64) bool {
	res := f > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive number, ignoring %v", name, f)
	}
	return res
}

func isValidDuration(name string, d time.Duration) bool {
	res := d > 0
	if !res {
		gn.Warn("<em>%s</em> has to be positive duration, ignoring %s", name, d)
	}
	return res
}

func isValidEnum(name, val string) bool {
	s := struct{}{}
	data := map[string]map[string]struct{}{
		"Database.SSLMode": {"disable": s, "require": s,
			"verify-ca": s, "verify-full": s},
		"Store.Driver":        {"postgres": s, "sqlite": s},
		"Crawl.RemovalPolicy": {"keep": s, "immediate": s, "grace": s},
		"Log.Level":           {"debug": s, "info": s, "warn": s, "error": s},
		"Log.Format":          {"json": s, "text": s, "tint": s},
		"Log.Destination":     {"file": s, "stderr": s, "stdout": s},
	}
	vals := slices.Sorted(maps.Keys(data[name]))
	var lines []string
	for _, v := range vals {
		line := fmt.Sprintf("  * %s", v)
		lines = append(lines, line)
	}
	if _, ok := data[name][val]; ok {
		return true
	}
	gn.Warn(
		"<em>%s</em> does not support '%s' as a value. "+
			"Valid values are: \n%s\nIgnoring...",
		name, val, strings.Join(lines, "\n"),
	)
	return false
}
