package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/archive"
	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/crawl"
	"github.com/gnames/gnabcd/pkg/errcode"
	"github.com/gnames/gnabcd/pkg/mapper"
	"github.com/gnames/gnabcd/pkg/reconcile"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/gnames/gnabcd/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coords = "/DataSets/DataSet/Units/Unit/Gathering/SiteCoordinateSets/" +
	"SiteCoordinates/CoordinatesLatLong/"

func testMapper(t *testing.T) *mapper.Mapper {
	t.Helper()
	cat, err := catalog.Load([]catalog.FieldDefinition{
		{Path: "/DataSets/DataSet/Units/Unit/UnitID", Type: catalog.Text},
		{Path: coords + "LongitudeDecimal", Type: catalog.Decimal},
		{Path: coords + "LatitudeDecimal", Type: catalog.Decimal},
		{
			Path:        "/DataSets/DataSet/Units/Unit/RecordBasis",
			Type:        catalog.Text,
			Requirement: catalog.Mandatory,
		},
		{
			Path: "/DataSets/DataSet/Metadata/Description/Representation/Title",
			Type: catalog.Text,
		},
	})
	require.NoError(t, err)
	return mapper.New(cat)
}

func unitXML(id, lon, lat string) string {
	return fmt.Sprintf(`<Unit><UnitID>%s</UnitID><RecordBasis>PreservedSpecimen</RecordBasis>
<Gathering><SiteCoordinateSets><SiteCoordinates><CoordinatesLatLong>
<LongitudeDecimal>%s</LongitudeDecimal><LatitudeDecimal>%s</LatitudeDecimal>
</CoordinatesLatLong></SiteCoordinates></SiteCoordinateSets></Gathering></Unit>`,
		id, lon, lat)
}

func abcdDoc(title string, units ...string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<DataSets xmlns="http://www.tdwg.org/schemas/abcd/2.06"><DataSet>
<Metadata><Description><Representation><Title>%s</Title></Representation></Description></Metadata>
<Units>%s</Units></DataSet></DataSets>`, title, strings.Join(units, "\n"))
}

type fakeLister struct {
	mu       sync.Mutex
	archives []bms.Archive
	failures int
	calls    int
}

func (l *fakeLister) List(_ context.Context) ([]bms.Archive, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.failures > 0 {
		l.failures--
		return nil, &gn.Error{
			Code: errcode.SourceUnavailableError,
			Err:  errors.New("listing is down"),
		}
	}
	return slices.Clone(l.archives), nil
}

type fakeFetcher struct {
	mu       sync.Mutex
	docs     map[string][]string
	failures map[string]int
	fetches  map[string]int
	closed   int
}

func newFetcher() *fakeFetcher {
	return &fakeFetcher{
		docs:     make(map[string][]string),
		failures: make(map[string]int),
		fetches:  make(map[string]int),
	}
}

func (f *fakeFetcher) Fetch(
	_ context.Context,
	a bms.Archive,
) (archive.Archive, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[a.DatasetID]++
	if f.failures[a.DatasetID] > 0 {
		f.failures[a.DatasetID]--
		return nil, &gn.Error{
			Code: errcode.RetrievalError,
			Err:  errors.New("connection reset"),
		}
	}
	return &fakeArchive{f: f, docs: f.docs[a.DatasetID]}, nil
}

func (f *fakeFetcher) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[id]
}

type fakeArchive struct {
	f    *fakeFetcher
	docs []string
}

func (a *fakeArchive) Documents() iter.Seq2[archive.Document, error] {
	return func(yield func(archive.Document, error) bool) {
		for i, v := range a.docs {
			doc := archive.Document{
				Name:  fmt.Sprintf("response.%05d.xml", i+1),
				Index: i,
				Body:  strings.NewReader(v),
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

func (a *fakeArchive) Close() error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()
	a.f.closed++
	return nil
}

// memStore keeps datasets in memory.
type memStore struct {
	mu        sync.Mutex
	snapshots map[string]record.Snapshot
	info      map[string]store.DatasetInfo
	missing   map[string]int
	failApply int
	runs      []store.RunSummary
}

func newStore() *memStore {
	return &memStore{
		snapshots: make(map[string]record.Snapshot),
		info:      make(map[string]store.DatasetInfo),
		missing:   make(map[string]int),
	}
}

func (s *memStore) Datasets(_ context.Context) ([]store.DatasetState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []store.DatasetState
	for _, k := range slices.Sorted(maps.Keys(s.snapshots)) {
		res = append(res, store.DatasetState{
			DatasetID:     k,
			VersionMarker: s.snapshots[k].VersionMarker,
			MissingCycles: s.missing[k],
		})
	}
	return res, nil
}

func (s *memStore) Snapshot(
	_ context.Context,
	id string,
) (record.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return record.EmptySnapshot(id), nil
	}
	return reconcile.Apply(snap, reconcile.Reconciliation{}, snap.VersionMarker), nil
}

func (s *memStore) Apply(
	_ context.Context,
	c store.Commit,
) (store.CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failApply > 0 {
		s.failApply--
		return store.CommitResult{}, &gn.Error{
			Code: errcode.WriteError,
			Err:  errors.New("disk is full"),
		}
	}
	prev, ok := s.snapshots[c.DatasetID]
	if !ok {
		prev = record.EmptySnapshot(c.DatasetID)
	}
	if prev.VersionMarker != c.ExpectedMarker {
		return store.CommitResult{}, &gn.Error{
			Code: errcode.CommitConflictError,
			Err:  errors.New("conflict"),
		}
	}
	s.snapshots[c.DatasetID] = reconcile.Apply(prev, c.Reconciliation, c.VersionMarker)
	s.info[c.DatasetID] = c.Dataset
	s.missing[c.DatasetID] = 0
	return store.CommitResult{
		Inserted: len(c.ToInsert),
		Updated:  len(c.ToUpdate),
		Deleted:  len(c.ToDelete),
	}, nil
}

func (s *memStore) MarkMissing(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing[id]++
	return s.missing[id], nil
}

func (s *memStore) ResetMissing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missing[id] = 0
	return nil
}

func (s *memStore) RemoveDataset(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, id)
	delete(s.info, id)
	delete(s.missing, id)
	return nil
}

func (s *memStore) PublishCatalog(context.Context, *catalog.Catalog) error {
	return nil
}

func (s *memStore) SaveRun(_ context.Context, rs store.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, rs)
	return nil
}

func (s *memStore) Close() error { return nil }

func (s *memStore) keys(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[id].Keys()
}

func (s *memStore) marker(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[id].VersionMarker
}

type env struct {
	cfg     *config.Config
	lister  *fakeLister
	fetcher *fakeFetcher
	store   *memStore
	mapper  *mapper.Mapper
}

func newEnv(t *testing.T, opts ...config.Option) *env {
	cfg := config.New()
	cfg.Update(append([]config.Option{
		config.OptJobsNumber(4),
		config.OptCrawlMaxRetries(3),
		config.OptCrawlBackoffBase(time.Millisecond),
		config.OptCrawlBackoffMax(4 * time.Millisecond),
	}, opts...))
	return &env{
		cfg:     cfg,
		lister:  &fakeLister{},
		fetcher: newFetcher(),
		store:   newStore(),
		mapper:  testMapper(t),
	}
}

func (e *env) publish(id, marker string, docs ...string) {
	e.lister.archives = slices.DeleteFunc(e.lister.archives, func(a bms.Archive) bool {
		return a.DatasetID == id
	})
	e.lister.archives = append(e.lister.archives, bms.Archive{
		DatasetID:     id,
		SourceURL:     "http://bms.example.org/" + id + ".zip",
		VersionMarker: marker,
		Provider:      "BGBM",
		DatasetName:   "Dataset " + id,
	})
	e.fetcher.docs[id] = docs
}

func (e *env) unpublish(id string) {
	e.lister.archives = slices.DeleteFunc(e.lister.archives, func(a bms.Archive) bool {
		return a.DatasetID == id
	})
}

func (e *env) crawl(t *testing.T, opts ...crawl.Option) (store.RunSummary, error) {
	t.Helper()
	o := crawl.New(e.cfg, e.lister, e.fetcher, e.store, e.mapper, opts...)
	return o.Crawl(context.Background())
}

func TestCrawlSynchronizes(t *testing.T) {
	assert := assert.New(t)
	e := newEnv(t)
	e.publish("ds1", "1", abcdDoc("Herbarium",
		unitXML("a", "10", "50"), unitXML("b", "11", "51")))
	e.publish("ds2", "7", abcdDoc("Zoology", unitXML("z", "1", "1")),
		abcdDoc("Zoology", unitXML("y", "2", "2")))

	s, err := e.crawl(t)
	require.NoError(t, err)
	assert.Equal(2, s.Done)
	assert.Equal(0, s.Failed)
	assert.Equal(3+1, s.Inserted)
	assert.Equal([]string{"a", "b"}, e.store.keys("ds1"))
	assert.Equal([]string{"y", "z"}, e.store.keys("ds2"))
	assert.Equal("7", e.store.marker("ds2"))
	assert.Equal("Herbarium", e.store.info["ds1"].Title)
	assert.Equal("BGBM", e.store.info["ds1"].Provider)
	assert.Equal(2, e.fetcher.closed)
	require.Len(t, e.store.runs, 1)
	assert.Equal(s.RunID, e.store.runs[0].RunID)

	// same versions are skipped
	s, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(2, s.Skipped)
	assert.Equal(0, s.Done)
	assert.Equal(1, e.fetcher.count("ds1"))

	// forced crawl of the same data changes nothing
	e.cfg.Update([]config.Option{config.OptCrawlForce(true)})
	s, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(2, s.Done)
	assert.Equal(0, s.Inserted+s.Updated+s.Deleted)
}

func TestCrawlNewVersion(t *testing.T) {
	e := newEnv(t)
	e.publish("ds1", "1", abcdDoc("H",
		unitXML("a", "10", "50"), unitXML("b", "11", "51")))
	_, err := e.crawl(t)
	require.NoError(t, err)

	e.publish("ds1", "2", abcdDoc("H",
		unitXML("b", "12", "51"), unitXML("c", "1", "1")))
	s, err := e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Inserted)
	assert.Equal(t, 1, s.Updated)
	assert.Equal(t, 1, s.Deleted)
	assert.Equal(t, []string{"b", "c"}, e.store.keys("ds1"))
	assert.Equal(t, "2", e.store.marker("ds1"))
}

func TestCrawlEmptyUnitIDs(t *testing.T) {
	e := newEnv(t)
	e.publish("ds1", "1", abcdDoc("H", unitXML("", "1", "1"), unitXML("", "2", "2")))

	s, err := e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Inserted)
	keys := e.store.keys("ds1")
	require.Len(t, keys, 2)
	assert.NotEqual(t, keys[0], keys[1])

	e.cfg.Update([]config.Option{config.OptCrawlForce(true)})
	s, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Done)
	assert.Equal(t, 0, s.Inserted+s.Updated+s.Deleted)
}

func TestCrawlIsolatesFailures(t *testing.T) {
	e := newEnv(t)
	e.publish("good", "1", abcdDoc("H", unitXML("a", "1", "1")))
	e.publish("bad", "1", "<DataSets><DataSet><Units><Unit></Units>")

	s, err := e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Done)
	assert.Equal(t, 1, s.Failed)
	require.Len(t, s.Failures, 1)
	assert.Equal(t, "bad", s.Failures[0].DatasetID)
	assert.Equal(t, "MalformedXmlError", s.Failures[0].Kind)
	assert.Equal(t, 1, e.fetcher.count("bad"), "parsing is not retried")
	assert.Empty(t, e.store.keys("bad"))
	assert.Equal(t, []string{"a"}, e.store.keys("good"))
}

func TestCrawlRetries(t *testing.T) {
	tests := []struct {
		msg      string
		failures int
		fetches  int
		state    crawl.State
	}{
		{"recovers", 2, 3, crawl.Done},
		{"gives up", 10, 4, crawl.Failed},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			e := newEnv(t)
			e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
			e.fetcher.failures["ds1"] = tt.failures

			var mu sync.Mutex
			var last *crawl.Run
			obs := crawl.ObserverFunc(func(r *crawl.Run, _, _ crawl.State) {
				mu.Lock()
				defer mu.Unlock()
				last = r
			})
			s, err := e.crawl(t, crawl.OptObserver(obs))
			assert.Equal(t, tt.fetches, e.fetcher.count("ds1"))
			require.NotNil(t, last)
			assert.Equal(t, tt.state, last.State)
			if tt.state == crawl.Failed {
				require.Error(t, err)
				assert.Equal(t, "RetrievalError", s.Failures[0].Kind)
				var gnErr *gn.Error
				require.True(t, errors.As(err, &gnErr))
				assert.Equal(t, errcode.AllArchivesFailedError, gnErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []crawl.State{
				crawl.Pending, crawl.Fetching, crawl.Parsing,
				crawl.Reconciling, crawl.Committing, crawl.Done,
			}, last.History)
		})
	}
}

func TestCrawlCommitFailure(t *testing.T) {
	e := newEnv(t)
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
	_, err := e.crawl(t)
	require.NoError(t, err)

	e.publish("ds1", "2", abcdDoc("H", unitXML("b", "1", "1")))
	e.store.failApply = 100
	s, err := e.crawl(t)
	require.Error(t, err)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, "WriteError", s.Failures[0].Kind)
	assert.Equal(t, []string{"a"}, e.store.keys("ds1"))
	assert.Equal(t, "1", e.store.marker("ds1"))

	// temporary failure is retried
	e.store.failApply = 1
	s, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Done)
	assert.Equal(t, []string{"b"}, e.store.keys("ds1"))
}

func TestCrawlRemovalPolicy(t *testing.T) {
	tests := []struct {
		policy string
		// cycles is the number of crawls after the dataset disappeared
		cycles  int
		removed bool
	}{
		{"keep", 5, false},
		{"immediate", 1, true},
		{"grace", 2, false},
		{"grace", 3, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %d", tt.policy, tt.cycles), func(t *testing.T) {
			e := newEnv(t,
				config.OptCrawlRemovalPolicy(tt.policy),
				config.OptCrawlGraceCycles(3),
			)
			e.publish("stay", "1", abcdDoc("H", unitXML("s", "1", "1")))
			e.publish("gone", "1", abcdDoc("H",
				unitXML("a", "1", "1"), unitXML("b", "1", "1")))
			_, err := e.crawl(t)
			require.NoError(t, err)

			e.unpublish("gone")
			var s store.RunSummary
			for range tt.cycles {
				s, err = e.crawl(t)
				require.NoError(t, err)
			}
			assert.Equal(t, []string{"s"}, e.store.keys("stay"))
			if tt.removed {
				assert.Empty(t, e.store.keys("gone"))
				assert.Equal(t, 1, s.Removed)
				assert.Equal(t, 2, s.Deleted)
				return
			}
			assert.Equal(t, []string{"a", "b"}, e.store.keys("gone"))
			assert.Equal(t, 0, s.Removed)
		})
	}
}

func TestCrawlGraceResetsOnReturn(t *testing.T) {
	e := newEnv(t,
		config.OptCrawlRemovalPolicy("grace"),
		config.OptCrawlGraceCycles(2),
	)
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
	e.publish("ds2", "1", abcdDoc("H", unitXML("b", "1", "1")))
	_, err := e.crawl(t)
	require.NoError(t, err)

	e.unpublish("ds1")
	_, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, e.store.missing["ds1"])

	e.publish("ds1", "2", abcdDoc("H", unitXML("a", "2", "2")))
	_, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 0, e.store.missing["ds1"])

	e.unpublish("ds1")
	_, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, e.store.keys("ds1"))
}

func TestCrawlGraceResetsOnSkippedReturn(t *testing.T) {
	e := newEnv(t,
		config.OptCrawlRemovalPolicy("grace"),
		config.OptCrawlGraceCycles(2),
	)
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
	_, err := e.crawl(t)
	require.NoError(t, err)

	e.unpublish("ds1")
	_, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, e.store.missing["ds1"])

	// same marker, so the archive is skipped and nothing is committed
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
	s, err := e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 0, e.store.missing["ds1"])

	e.unpublish("ds1")
	s, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Removed)
	assert.Equal(t, []string{"a"}, e.store.keys("ds1"))
}

func TestCrawlFilter(t *testing.T) {
	e := newEnv(t, config.OptCrawlRemovalPolicy("immediate"))
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
	e.publish("ds2", "1", abcdDoc("H", unitXML("b", "1", "1")))
	_, err := e.crawl(t)
	require.NoError(t, err)

	e.publish("ds2", "2", abcdDoc("H", unitXML("c", "1", "1")))
	e.publish("ds3", "1", abcdDoc("H", unitXML("d", "1", "1")))
	e.cfg.Update([]config.Option{config.OptCrawlDatasetIDs([]string{"ds2"})})
	s, err := e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Done)
	assert.Equal(t, 0, s.Removed)
	assert.Equal(t, []string{"a"}, e.store.keys("ds1"))
	assert.Equal(t, []string{"c"}, e.store.keys("ds2"))
	assert.Empty(t, e.store.keys("ds3"))

	e.cfg.Crawl.DatasetIDs = nil
	e.cfg.Update([]config.Option{config.OptCrawlLimit(1)})
	s, err = e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Done+s.Skipped)
}

func TestCrawlListingFailure(t *testing.T) {
	e := newEnv(t)
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))

	e.lister.failures = 2
	s, err := e.crawl(t)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Done)
	assert.Equal(t, 3, e.lister.calls)

	e.lister.failures = 10
	e.lister.calls = 0
	_, err = e.crawl(t)
	require.Error(t, err)
	assert.Equal(t, "SourceUnavailable", crawl.Kind(err))
	assert.Equal(t, 4, e.lister.calls)
}

func TestCrawlCancelled(t *testing.T) {
	e := newEnv(t)
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
	e.publish("ds2", "1", abcdDoc("H", unitXML("b", "1", "1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := crawl.New(e.cfg, e.lister, e.fetcher, e.store, e.mapper)
	s, err := o.Crawl(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, s.Failed)
	for _, v := range s.Failures {
		assert.Equal(t, "Cancelled", v.Kind)
		assert.True(t, crawl.IsCancelled(v.Err))
	}
	assert.Empty(t, e.store.keys("ds1"))
	assert.Equal(t, 0, e.fetcher.count("ds1"))
}

func TestCrawlCancelDuringRun(t *testing.T) {
	e := newEnv(t)
	for i := range 20 {
		id := fmt.Sprintf("ds%02d", i)
		e.publish(id, "1", abcdDoc("H", unitXML("a", "1", "1")))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var once sync.Once
	obs := crawl.ObserverFunc(func(_ *crawl.Run, _, to crawl.State) {
		if to == crawl.Done {
			once.Do(cancel)
		}
	})
	o := crawl.New(e.cfg, e.lister, e.fetcher, e.store, e.mapper,
		crawl.OptObserver(obs))
	s, _ := o.Crawl(ctx)

	assert.Equal(t, 20, s.Done+s.Failed)
	assert.GreaterOrEqual(t, s.Done, 1)
	for _, v := range s.Failures {
		assert.Equal(t, "Cancelled", v.Kind)
		// cancelled datasets are never half written
		assert.Empty(t, e.store.keys(v.DatasetID))
	}
}

type planObserver struct {
	mu       sync.Mutex
	planned  int
	terminal int
}

func (p *planObserver) OnPlan(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.planned = total
}

func (p *planObserver) OnTransition(_ *crawl.Run, _, to crawl.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if to.Terminal() {
		p.terminal++
	}
}

func TestCrawlPlanner(t *testing.T) {
	e := newEnv(t)
	e.publish("ds1", "1", abcdDoc("H", unitXML("a", "1", "1")))
	e.publish("ds2", "1", abcdDoc("H", unitXML("b", "1", "1")))
	e.publish("ds3", "1", abcdDoc("H", unitXML("c", "1", "1")))
	e.cfg.Update([]config.Option{config.OptCrawlLimit(2)})

	obs := &planObserver{}
	s, err := e.crawl(t, crawl.OptObserver(obs))
	require.NoError(t, err)
	assert.Equal(t, 2, obs.planned, "plan counts selected archives only")
	assert.Equal(t, 2, obs.terminal)
	assert.Equal(t, 2, s.Done)
}
