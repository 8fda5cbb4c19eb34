// Package crawl runs a crawl cycle: it lists published archives and
// synchronizes every changed archive with the store. Archives are
// processed concurrently, failures are isolated per archive.
package crawl

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gnames/gnabcd/pkg/abcd"
	"github.com/gnames/gnabcd/pkg/archive"
	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/mapper"
	"github.com/gnames/gnabcd/pkg/reconcile"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/gnames/gnabcd/pkg/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Observer receives state changes of runs. It is called from worker
// goroutines and has to be safe for concurrent use.
type Observer interface {
	OnTransition(r *Run, from, to State)
}

// Planner is an optional interface of an Observer. It learns the number
// of archives selected for the cycle before processing starts.
type Planner interface {
	OnPlan(total int)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r *Run, from, to State)

func (f ObserverFunc) OnTransition(r *Run, from, to State) {
	f(r, from, to)
}

// Orchestrator coordinates one crawl cycle at a time.
type Orchestrator struct {
	cfg      *config.Config
	lister   bms.Lister
	fetcher  archive.Fetcher
	store    store.Store
	mapper   *mapper.Mapper
	observer Observer
	locks    *keyedMutex

	// mu guards transitions, so observers see consistent runs.
	mu sync.Mutex
}

// Option configures Orchestrator.
type Option func(*Orchestrator)

// OptObserver sets an observer of state transitions.
func OptObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		o.observer = obs
	}
}

// New creates an Orchestrator.
func New(
	cfg *config.Config,
	lister bms.Lister,
	fetcher archive.Fetcher,
	st store.Store,
	m *mapper.Mapper,
	opts ...Option,
) *Orchestrator {
	res := &Orchestrator{
		cfg:     cfg,
		lister:  lister,
		fetcher: fetcher,
		store:   st,
		mapper:  m,
		locks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

// Crawl runs one cycle. It returns an error if listing failed, stored
// datasets could not be read, or every archive failed. Failures of
// individual archives are reported in the summary.
func (o *Orchestrator) Crawl(ctx context.Context) (store.RunSummary, error) {
	summary := store.RunSummary{
		RunID:   uuid.New(),
		Started: time.Now(),
	}
	slog.Info("Starting crawl", "run", summary.RunID)

	var archives []bms.Archive
	_, err := o.retry(ctx, "listing", "", func(ctx context.Context) error {
		var err error
		archives, err = o.lister.List(ctx)
		return err
	})
	if err != nil {
		slog.Error("Cannot list archives", "error", err)
		return summary, err
	}
	listed := len(archives)
	archives = o.filter(archives)
	slog.Info("Listed archives", "listed", listed, "selected", len(archives))
	if p, ok := o.observer.(Planner); ok {
		p.OnPlan(len(archives))
	}

	states, err := o.store.Datasets(ctx)
	if err != nil {
		return summary, err
	}
	stored := make(map[string]store.DatasetState, len(states))
	for _, v := range states {
		stored[v.DatasetID] = v
	}

	o.resetMissing(ctx, archives, stored)

	runs := make([]*Run, len(archives))
	for i, a := range archives {
		runs[i] = NewRun(a)
	}

	g := &errgroup.Group{}
	g.SetLimit(max(o.cfg.JobsNumber, 1))
	for _, r := range runs {
		if ctx.Err() != nil {
			o.fail(r, CancelledError(r.Archive.DatasetID, ctx.Err()))
			continue
		}
		g.Go(func() error {
			st, ok := stored[r.Archive.DatasetID]
			o.process(ctx, r, st, ok)
			return nil
		})
	}
	_ = g.Wait()

	if o.filtered() {
		slog.Info("Listing is filtered, removal of missing datasets is skipped")
	} else if ctx.Err() == nil {
		o.removeMissing(ctx, archives, states, &summary)
	}

	o.tally(runs, &summary)
	summary.Finished = time.Now()
	if err = o.store.SaveRun(context.WithoutCancel(ctx), summary); err != nil {
		slog.Error("Cannot save crawl summary", "error", err)
	}
	slog.Info("Finished crawl",
		"run", summary.RunID,
		"done", summary.Done,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"removed", summary.Removed,
	)

	if summary.Failed > 0 && summary.Failed == len(runs) {
		return summary, AllArchivesFailedError(summary.Failed)
	}
	return summary, nil
}

// resetMissing clears the missing counter of listed datasets. Skipped
// archives never reach a commit, so the counter is reset here.
func (o *Orchestrator) resetMissing(
	ctx context.Context,
	archives []bms.Archive,
	stored map[string]store.DatasetState,
) {
	for _, v := range archives {
		st, ok := stored[v.DatasetID]
		if !ok || st.MissingCycles == 0 {
			continue
		}
		if err := o.store.ResetMissing(ctx, v.DatasetID); err != nil {
			slog.Error("Cannot reset missing counter",
				"dataset", v.DatasetID, "error", err)
			continue
		}
		slog.Info("Dataset is back in listing",
			"dataset", v.DatasetID, "cycles", st.MissingCycles)
	}
}

func (o *Orchestrator) filtered() bool {
	return len(o.cfg.Crawl.DatasetIDs) > 0 || o.cfg.Crawl.Limit > 0
}

// filter applies dataset IDs and limit, and removes repeated datasets.
func (o *Orchestrator) filter(archives []bms.Archive) []bms.Archive {
	seen := make(map[string]struct{}, len(archives))
	res := make([]bms.Archive, 0, len(archives))
	for _, v := range archives {
		if _, ok := seen[v.DatasetID]; ok {
			slog.Warn("Dataset is listed more than once", "dataset", v.DatasetID)
			continue
		}
		seen[v.DatasetID] = struct{}{}
		ids := o.cfg.Crawl.DatasetIDs
		if len(ids) > 0 && !slices.Contains(ids, v.DatasetID) {
			continue
		}
		res = append(res, v)
		if o.cfg.Crawl.Limit > 0 && len(res) == o.cfg.Crawl.Limit {
			break
		}
	}
	return res
}

func (o *Orchestrator) move(r *Run, to State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	from := r.State
	if err := r.Transition(to); err != nil {
		slog.Error("Bad transition", "error", err)
		return
	}
	if to.Terminal() {
		r.Finished = time.Now()
	}
	if o.observer != nil {
		o.observer.OnTransition(r, from, to)
	}
}

func (o *Orchestrator) fail(r *Run, err error) {
	r.Err = err
	r.Kind = Kind(err)
	slog.Error("Archive failed",
		"dataset", r.Archive.DatasetID,
		"stage", r.State,
		"kind", r.Kind,
		"error", err,
	)
	o.move(r, Failed)
}

// cancelled fails the run if the crawl was cancelled.
func (o *Orchestrator) cancelled(ctx context.Context, r *Run) bool {
	if ctx.Err() == nil {
		return false
	}
	o.fail(r, CancelledError(r.Archive.DatasetID, ctx.Err()))
	return true
}

func (o *Orchestrator) process(
	ctx context.Context,
	r *Run,
	st store.DatasetState,
	known bool,
) {
	r.Started = time.Now()
	id := r.Archive.DatasetID
	if known && !o.cfg.Crawl.Force && st.VersionMarker == r.Archive.VersionMarker {
		slog.Info("Archive is up to date", "dataset", id, "version", st.VersionMarker)
		r.Skipped = true
		o.move(r, Done)
		return
	}

	if o.cancelled(ctx, r) {
		return
	}
	o.move(r, Fetching)
	var arc archive.Archive
	n, err := o.retry(ctx, "fetching", id, func(ctx context.Context) error {
		var err error
		arc, err = o.fetcher.Fetch(ctx, r.Archive)
		return err
	})
	r.Attempts += n
	if err != nil {
		o.fail(r, err)
		return
	}
	defer func() {
		if err := arc.Close(); err != nil {
			slog.Warn("Cannot close archive", "dataset", id, "error", err)
		}
	}()

	if o.cancelled(ctx, r) {
		return
	}
	o.move(r, Parsing)
	records, ds, err := o.parse(id, arc)
	if err != nil {
		o.fail(r, err)
		return
	}
	r.Units = len(records)

	if o.cancelled(ctx, r) {
		return
	}
	unlock := o.locks.Lock(id)
	defer unlock()

	o.move(r, Reconciling)
	snap, err := o.store.Snapshot(context.WithoutCancel(ctx), id)
	if err != nil {
		o.fail(r, err)
		return
	}
	res := reconcile.Reconcile(id, records, snap)
	o.report(r, res)

	if o.cancelled(ctx, r) {
		return
	}
	o.move(r, Committing)
	commit := store.Commit{
		Reconciliation: res.Reconciliation,
		VersionMarker:  r.Archive.VersionMarker,
		ExpectedMarker: snap.VersionMarker,
		Dataset:        o.datasetInfo(r.Archive, ds),
	}
	n, err = o.retry(ctx, "committing", id, func(ctx context.Context) error {
		var err error
		r.Result, err = o.store.Apply(ctx, commit)
		return err
	})
	r.Attempts += n
	if err != nil {
		o.fail(r, err)
		return
	}
	slog.Info("Archive synchronized",
		"dataset", id,
		"version", r.Archive.VersionMarker,
		"inserted", r.Result.Inserted,
		"updated", r.Result.Updated,
		"deleted", r.Result.Deleted,
		"unchanged", res.Unchanged,
	)
	o.move(r, Done)
}

// parse maps units of all documents of an archive. Dataset metadata is
// taken from the first document that has it.
func (o *Orchestrator) parse(
	datasetID string,
	arc archive.Archive,
) ([]record.Record, mapper.Dataset, error) {
	var records []record.Record
	var ds mapper.Dataset
	for doc, err := range arc.Documents() {
		if err != nil {
			return nil, ds, err
		}
		stream := abcd.Parse(doc.Body, doc.Name)
		for u, err := range stream.Units() {
			if err != nil {
				return nil, ds, err
			}
			records = append(records, o.mapper.Map(datasetID, u))
		}
		if len(ds.Attributes) == 0 {
			ds = o.mapper.MapDataset(stream.Dataset())
			slog.Debug("Parsed document",
				"dataset", datasetID,
				"document", doc.Name,
				"abcd", stream.Version(),
			)
		}
	}
	if len(ds.Violations) > 0 {
		slog.Warn("Dataset misses mandatory fields",
			"dataset", datasetID,
			"paths", ds.Violations,
		)
	}
	return records, ds, nil
}

func (o *Orchestrator) report(r *Run, res reconcile.Result) {
	r.Invalid = len(res.Invalid)
	r.Collisions = len(res.Collisions)
	for _, v := range res.Invalid {
		slog.Warn("Unit misses mandatory fields",
			"dataset", r.Archive.DatasetID,
			"source", v.Source,
			"paths", v.Violations,
		)
	}
	for _, v := range res.Collisions {
		slog.Warn("Repeated unit key, later unit wins",
			"dataset", r.Archive.DatasetID,
			"key", v.UnitKey,
			"earlier", v.Earlier,
			"later", v.Later,
		)
	}
}

func (o *Orchestrator) datasetInfo(
	a bms.Archive,
	ds mapper.Dataset,
) store.DatasetInfo {
	res := store.DatasetInfo{
		Title:       ds.Title,
		LandingPage: ds.LandingPage,
		Provider:    a.Provider,
		SourceURL:   a.SourceURL,
		Attributes:  ds.Attributes,
	}
	if res.Title == "" {
		res.Title = a.DatasetName
	}
	if res.LandingPage == "" {
		res.LandingPage = a.LandingPage
	}
	return res
}

func (o *Orchestrator) tally(runs []*Run, s *store.RunSummary) {
	for _, r := range runs {
		switch {
		case r.State == Failed:
			s.Failed++
			s.Failures = append(s.Failures, store.Failure{
				DatasetID: r.Archive.DatasetID,
				Kind:      r.Kind,
				Err:       r.Err,
			})
		case r.Skipped:
			s.Skipped++
		case r.State == Done:
			s.Done++
			s.Inserted += r.Result.Inserted
			s.Updated += r.Result.Updated
			s.Deleted += r.Result.Deleted
		}
	}
}

// Policies for datasets that disappeared from the listing.
const (
	RemovalKeep      = "keep"
	RemovalImmediate = "immediate"
	RemovalGrace     = "grace"
)

func (o *Orchestrator) removeMissing(
	ctx context.Context,
	archives []bms.Archive,
	states []store.DatasetState,
	s *store.RunSummary,
) {
	policy := o.cfg.Crawl.RemovalPolicy
	if policy == RemovalKeep || policy == "" {
		return
	}
	listed := make(map[string]struct{}, len(archives))
	for _, v := range archives {
		listed[v.DatasetID] = struct{}{}
	}

	for _, st := range states {
		if _, ok := listed[st.DatasetID]; ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		if policy == RemovalGrace {
			n, err := o.store.MarkMissing(ctx, st.DatasetID)
			if err != nil {
				slog.Error("Cannot mark missing dataset",
					"dataset", st.DatasetID, "error", err)
				continue
			}
			if n < o.cfg.Crawl.GraceCycles {
				slog.Info("Dataset is missing from listing",
					"dataset", st.DatasetID, "cycles", n)
				continue
			}
		}

		deleted, err := o.remove(ctx, st.DatasetID)
		if err != nil {
			slog.Error("Cannot remove dataset",
				"dataset", st.DatasetID, "error", err)
			continue
		}
		s.Removed++
		s.Deleted += deleted
		slog.Info("Removed dataset", "dataset", st.DatasetID, "units", deleted)
	}
}

// remove deletes all records of a dataset and then the dataset itself.
func (o *Orchestrator) remove(ctx context.Context, datasetID string) (int, error) {
	unlock := o.locks.Lock(datasetID)
	defer unlock()

	snap, err := o.store.Snapshot(ctx, datasetID)
	if err != nil {
		return 0, err
	}
	res, err := o.store.Apply(ctx, store.Commit{
		Reconciliation: reconcile.Removal(snap),
		VersionMarker:  snap.VersionMarker,
		ExpectedMarker: snap.VersionMarker,
	})
	if err != nil {
		return 0, err
	}
	if err = o.store.RemoveDataset(ctx, datasetID); err != nil {
		return res.Deleted, err
	}
	return res.Deleted, nil
}

// IsCancelled reports if the error came from cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || Kind(err) == "Cancelled"
}
