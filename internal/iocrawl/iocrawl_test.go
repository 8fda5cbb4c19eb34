package iocrawl_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gnames/gnabcd/internal/iocrawl"
	"github.com/gnames/gnabcd/internal/iofs"
	"github.com/gnames/gnabcd/internal/iostore"
	"github.com/gnames/gnabcd/pkg/config"
	"github.com/gnames/gnabcd/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<?xml version="1.0" encoding="ISO-8859-1"?>
<abcd:DataSets xmlns:abcd="http://www.tdwg.org/schemas/abcd/2.06">
<abcd:DataSet>
  <abcd:Metadata><abcd:Description><abcd:Representation language="en">
    <abcd:Title>Herbarium Berolinense</abcd:Title>
  </abcd:Representation></abcd:Description></abcd:Metadata>
  <abcd:Units>%s</abcd:Units>
</abcd:DataSet>
</abcd:DataSets>`

const unit = `<abcd:Unit>
  <abcd:UnitID>%s</abcd:UnitID>
  <abcd:Identifications><abcd:Identification><abcd:Result><abcd:TaxonIdentified>
    <abcd:ScientificName><abcd:FullScientificNameString>%s</abcd:FullScientificNameString></abcd:ScientificName>
  </abcd:TaxonIdentified></abcd:Result></abcd:Identification></abcd:Identifications>
  <abcd:Gathering><abcd:SiteCoordinateSets><abcd:SiteCoordinates><abcd:CoordinatesLatLong>
    <abcd:LongitudeDecimal>%s</abcd:LongitudeDecimal>
    <abcd:LatitudeDecimal>%s</abcd:LatitudeDecimal>
  </abcd:CoordinatesLatLong></abcd:SiteCoordinates></abcd:SiteCoordinateSets></abcd:Gathering>
</abcd:Unit>`

// bmsServer publishes archives. Archives can be replaced between crawls.
type bmsServer struct {
	mu       sync.Mutex
	ts       *httptest.Server
	archives map[string][]byte
	versions map[string]string
}

func newBMS(t *testing.T) *bmsServer {
	t.Helper()
	res := &bmsServer{
		archives: make(map[string][]byte),
		versions: make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/datasets", res.listing)
	mux.HandleFunc("/archives/{dsa}", func(w http.ResponseWriter, r *http.Request) {
		res.mu.Lock()
		data, ok := res.archives[r.PathValue("dsa")]
		res.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	})
	res.ts = httptest.NewServer(mux)
	t.Cleanup(res.ts.Close)
	return res
}

func (b *bmsServer) listing(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var items []string
	for dsa, v := range b.versions {
		items = append(items, fmt.Sprintf(`{
			"provider_datacenter": "BGBM", "provider_url": "www.bgbm.org",
			"dsa": %q, "dataset": "Dataset %s",
			"xml_archives": [{"id": %q, "xml_archive": "%s/archives/%s", "latest": true}]
		}`, dsa, dsa, v, b.ts.URL, dsa))
	}
	fmt.Fprintf(w, "[%s]", strings.Join(items, ","))
}

func (b *bmsServer) publish(t *testing.T, dsa, version string, units ...string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("response.00001.xml")
	require.NoError(t, err)
	_, err = fmt.Fprintf(w, doc, strings.Join(units, "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.archives[dsa] = buf.Bytes()
	b.versions[dsa] = version
}

func (b *bmsServer) unpublish(dsa string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.archives, dsa)
	delete(b.versions, dsa)
}

func testConfig(t *testing.T, b *bmsServer) *config.Config {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, iofs.EnsureDirs(home))
	require.NoError(t, iofs.EnsureFieldsFile(home))

	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptHomeDir(home),
		config.OptStoreDriver("sqlite"),
		config.OptBMSListingURL(b.ts.URL + "/datasets"),
		config.OptBMSTimeout(5 * time.Second),
		config.OptBMSRequestsPerSecond(1000),
		config.OptJobsNumber(2),
		config.OptCrawlBackoffBase(time.Millisecond),
		config.OptCrawlBackoffMax(time.Millisecond),
		config.OptCrawlRemovalPolicy("immediate"),
	})
	return cfg
}

func TestCrawl(t *testing.T) {
	ctx := context.Background()
	b := newBMS(t)
	cfg := testConfig(t, b)

	st, err := iostore.NewSQLite(cfg.SQLitePath())
	require.NoError(t, err)
	defer st.Close()

	crawl := func() store.RunSummary {
		t.Helper()
		s, err := iocrawl.New(cfg, iocrawl.OptStore(st)).Run(ctx)
		require.NoError(t, err)
		return s
	}

	b.publish(t, "Herbar", "1",
		fmt.Sprintf(unit, "B 10 0001", "Abies alba Mill.", "13.4", "52.5"),
		fmt.Sprintf(unit, "B 10 0002", "Pinus sylvestris L.", "200", "52.5"),
	)
	b.publish(t, "Moss", "5",
		fmt.Sprintf(unit, "M1", "Sphagnum palustre L.", "10", "50"),
	)

	s := crawl()
	assert.Equal(t, 2, s.Done)
	assert.Equal(t, 3, s.Inserted)
	assert.Empty(t, s.Failures)

	snap, err := st.Snapshot(ctx, "Herbar")
	require.NoError(t, err)
	assert.Equal(t, "1", snap.VersionMarker)
	require.Len(t, snap.Records, 2)
	abies := snap.Records["B 10 0001"]
	assert.Equal(t, "Abies alba", abies.CanonicalName)
	require.NotNil(t, abies.Geometry)
	assert.Nil(t, snap.Records["B 10 0002"].Geometry, "longitude out of range")

	// nothing changed
	s = crawl()
	assert.Equal(t, 2, s.Skipped)
	assert.Equal(t, 0, s.Done)

	// new version of one dataset, another one disappears
	b.publish(t, "Herbar", "2",
		fmt.Sprintf(unit, "B 10 0001", "Abies alba Mill.", "13.5", "52.5"),
	)
	b.unpublish("Moss")
	s = crawl()
	assert.Equal(t, 1, s.Done)
	assert.Equal(t, 1, s.Updated)
	// one unit of the new version and the unit of the removed dataset
	assert.Equal(t, 2, s.Deleted)
	assert.Equal(t, 1, s.Removed)

	states, err := st.Datasets(ctx)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.Equal(t, store.DatasetState{DatasetID: "Herbar", VersionMarker: "2"}, states[0])
}

func TestCrawlWithPangaea(t *testing.T) {
	ctx := context.Background()
	b := newBMS(t)
	b.publish(t, "Herbar", "1", fmt.Sprintf(unit, "B1", "Abies alba", "1", "1"))
	b.publish(t, "Moss", "1", fmt.Sprintf(unit, "M1", "Sphagnum", "10", "50"))
	// the second archive is known to PANGAEA only
	b.mu.Lock()
	delete(b.versions, "Moss")
	b.mu.Unlock()

	var searchDown atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		if searchDown.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `{"_scroll_id": "S1", "hits": {"hits": [
			{"_id": "PANGAEA.7", "_source": {"citation_publisher": "PANGAEA",
			 "datalink": "%s/archives/Moss"}}]}}`, b.ts.URL)
	})
	mux.HandleFunc("/scroll", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"_scroll_id": "S1", "hits": {"hits": []}}`)
	})
	es := httptest.NewServer(mux)
	defer es.Close()

	cfg := testConfig(t, b)
	cfg.Update([]config.Option{
		config.OptPangaeaSearchURL(es.URL + "/search"),
		config.OptPangaeaScrollURL(es.URL + "/scroll"),
	})
	st, err := iostore.NewSQLite(cfg.SQLitePath())
	require.NoError(t, err)
	defer st.Close()

	s, err := iocrawl.New(cfg, iocrawl.OptStore(st)).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Done)

	snap, err := st.Snapshot(ctx, "PANGAEA.7")
	require.NoError(t, err)
	assert.Equal(t, []string{"M1"}, snap.Keys())
	assert.Equal(t, b.ts.URL+"/archives/Moss", snap.VersionMarker)

	// a failed source fails the listing, nothing is removed
	searchDown.Store(true)
	_, err = iocrawl.New(cfg, iocrawl.OptStore(st)).Run(ctx)
	require.Error(t, err)
	states, err := st.Datasets(ctx)
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func TestCrawlFailedArchive(t *testing.T) {
	b := newBMS(t)
	cfg := testConfig(t, b)
	cfg.Update([]config.Option{config.OptCrawlMaxRetries(1)})

	b.publish(t, "Herbar", "1", fmt.Sprintf(unit, "B1", "Abies alba", "1", "1"))
	b.mu.Lock()
	b.archives["Herbar"] = []byte("not a zip")
	b.mu.Unlock()

	s, err := iocrawl.New(cfg).Run(context.Background())
	require.Error(t, err, "every archive failed")
	assert.Equal(t, 1, s.Failed)
	require.Len(t, s.Failures, 1)
	assert.Equal(t, "ArchiveFormatError", s.Failures[0].Kind)
	assert.Contains(t, iocrawl.FailuresReport(s.Failures), "Herbar (ArchiveFormatError)")
}

func TestCrawlNoCatalog(t *testing.T) {
	b := newBMS(t)
	cfg := testConfig(t, b)
	cfg.Update([]config.Option{config.OptABCDFieldsFile(t.TempDir() + "/none.yaml")})

	_, err := iocrawl.New(cfg).Run(context.Background())
	assert.Error(t, err)
}
