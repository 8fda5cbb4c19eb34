// Package iocrawl assembles the crawler from configuration and reports
// results of a crawl to the user.
package iocrawl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/internal/ioarchive"
	"github.com/gnames/gnabcd/internal/iobms"
	"github.com/gnames/gnabcd/internal/iopangaea"
	"github.com/gnames/gnabcd/internal/iofs"
	"github.com/gnames/gnabcd/internal/iostore"
	"github.com/gnames/gnabcd/pkg/archive"
	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/crawl"
	"github.com/gnames/gnabcd/pkg/mapper"
	"github.com/gnames/gnabcd/pkg/parserpool"
	"github.com/gnames/gnabcd/pkg/store"
	"github.com/gnames/gnfmt"
)

// Crawler runs crawl cycles with real I/O components.
type Crawler struct {
	cfg      *config.Config
	lister   bms.Lister
	fetcher  archive.Fetcher
	store    store.Store
	progress bool
}

// Option configures Crawler.
type Option func(*Crawler)

// OptLister replaces listers of BMS and PANGAEA.
func OptLister(l bms.Lister) Option {
	return func(c *Crawler) {
		c.lister = l
	}
}

// OptFetcher replaces the archive fetcher.
func OptFetcher(f archive.Fetcher) Option {
	return func(c *Crawler) {
		c.fetcher = f
	}
}

// OptStore sets an opened store. The store is not closed by Crawler.
func OptStore(s store.Store) Option {
	return func(c *Crawler) {
		c.store = s
	}
}

// OptProgress shows a progress bar during the crawl.
func OptProgress(b bool) Option {
	return func(c *Crawler) {
		c.progress = b
	}
}

// New creates a Crawler. Components that are not given by options are
// created from cfg.
func New(cfg *config.Config, opts ...Option) *Crawler {
	res := &Crawler{cfg: cfg}
	for _, opt := range opts {
		opt(res)
	}
	if res.lister == nil {
		res.lister = listers(cfg)
	}
	if res.fetcher == nil {
		res.fetcher = ioarchive.New(
			config.ArchiveCacheDir(cfg.HomeDir),
			cfg.BMS.Timeout,
			cfg.BMS.RequestsPerSecond,
		)
	}
	return res
}

// listers combines configured archive sources. BMS is always used
// unless only PANGAEA is configured.
func listers(cfg *config.Config) bms.Lister {
	var res []bms.Lister
	pangaea := cfg.Pangaea.SearchURL != ""
	if cfg.BMS.ListingURL != "" || !pangaea {
		res = append(res, iobms.New(cfg.BMS))
	}
	if pangaea {
		client := iobms.NewClient(cfg.BMS.Timeout, cfg.BMS.RequestsPerSecond)
		res = append(res, iopangaea.New(cfg.Pangaea, client))
	}
	return bms.Combine(res...)
}

// Run loads the field catalog, opens the store and runs one crawl
// cycle.
func (c *Crawler) Run(ctx context.Context) (store.RunSummary, error) {
	var summary store.RunSummary

	cat, err := iofs.LoadCatalog(c.cfg.FieldsFile())
	if err != nil {
		return summary, err
	}
	slog.Info("Field catalog loaded",
		"file", c.cfg.FieldsFile(), "fields", cat.Len())

	st := c.store
	if st == nil {
		if st, err = iostore.New(ctx, c.cfg); err != nil {
			return summary, err
		}
		defer st.Close()
	}

	if err = st.PublishCatalog(ctx, cat); err != nil {
		return summary, err
	}

	pool := parserpool.NewPool(c.cfg.JobsNumber)
	defer pool.Close()
	m := mapper.New(cat, mapper.OptNameParser(pool))

	var opts []crawl.Option
	var bar *progress
	if c.progress {
		bar = &progress{}
		opts = append(opts, crawl.OptObserver(bar))
	}

	o := crawl.New(c.cfg, c.lister, c.fetcher, st, m, opts...)
	summary, err = o.Crawl(ctx)
	if bar != nil {
		bar.finish()
	}
	return summary, err
}

// Report prints the summary of a crawl for the user.
func Report(s store.RunSummary) {
	duration := s.Finished.Sub(s.Started)
	gn.Info(`Crawl <em>%s</em> finished in <em>%s</em>
Archives synchronized: %s, unchanged: %s, failed: %s, removed: %s
Units inserted: %s, updated: %s, deleted: %s`,
		s.RunID,
		gnfmt.TimeString(duration.Seconds()),
		humanize.Comma(int64(s.Done)),
		humanize.Comma(int64(s.Skipped)),
		humanize.Comma(int64(s.Failed)),
		humanize.Comma(int64(s.Removed)),
		humanize.Comma(int64(s.Inserted)),
		humanize.Comma(int64(s.Updated)),
		humanize.Comma(int64(s.Deleted)),
	)

	if len(s.Failures) == 0 {
		return
	}
	gn.Warn(FailuresReport(s.Failures))
}

// FailuresReport lists failed archives, one per line.
func FailuresReport(fs []store.Failure) string {
	var sb strings.Builder
	sb.WriteString("<warn>Failed archives:</warn>")
	for _, v := range fs {
		fmt.Fprintf(&sb, "\n  %s (%s)", v.DatasetID, v.Kind)
	}
	return sb.String()
}
