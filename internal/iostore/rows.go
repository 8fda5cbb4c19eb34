package iostore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/gnames/gnabcd/pkg/schema"
	"github.com/gnames/gnabcd/pkg/store"
	"github.com/gnames/gnuuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// UnitID returns the stable row ID of a unit.
func UnitID(datasetID, unitKey string) string {
	return gnuuid.New(datasetID + "|" + unitKey).String()
}

// unitRow converts a record to its stored form.
func unitRow(r record.Record, now time.Time) (schema.Unit, error) {
	attrs, err := attributesJSON(r.Attributes)
	if err != nil {
		return schema.Unit{}, err
	}
	res := schema.Unit{
		DatasetID:     r.DatasetID,
		UnitKey:       r.UnitKey,
		ID:            UnitID(r.DatasetID, r.UnitKey),
		Attributes:    attrs,
		CanonicalName: r.CanonicalName,
		UpdatedAt:     now,
	}
	if r.Geometry != nil {
		lon, lat := r.Geometry.Lon(), r.Geometry.Lat()
		geom := wkt.MarshalString(*r.Geometry)
		res.Longitude, res.Latitude, res.Geom = &lon, &lat, &geom
	}
	return res, nil
}

// unitRecord restores a stored unit. Only valid records are stored.
func unitRecord(
	datasetID, unitKey string,
	attrs []byte,
	lon, lat *float64,
	canonical string,
) (record.Record, error) {
	res := record.Record{
		DatasetID:     datasetID,
		UnitKey:       unitKey,
		CanonicalName: canonical,
		Valid:         true,
	}
	if err := json.Unmarshal(attrs, &res.Attributes); err != nil {
		return res, err
	}
	if lon != nil && lat != nil {
		res.Geometry = &orb.Point{*lon, *lat}
	}
	return res, nil
}

func attributesJSON(a record.Attributes) (string, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	res, err := json.Marshal(a)
	return string(res), err
}

type failureRow struct {
	DatasetID string `json:"dataset"`
	Kind      string `json:"kind"`
	Error     string `json:"error"`
}

// runRow converts a run summary to its stored form.
func runRow(s store.RunSummary) (schema.CrawlRun, error) {
	fs := make([]failureRow, 0, len(s.Failures))
	for _, v := range s.Failures {
		var msg string
		if v.Err != nil {
			msg = v.Err.Error()
		}
		fs = append(fs, failureRow{DatasetID: v.DatasetID, Kind: v.Kind, Error: msg})
	}
	failures, err := json.Marshal(fs)
	if err != nil {
		return schema.CrawlRun{}, err
	}
	return schema.CrawlRun{
		ID:       s.RunID.String(),
		Started:  s.Started,
		Finished: s.Finished,
		Done:     s.Done,
		Failed:   s.Failed,
		Skipped:  s.Skipped,
		Removed:  s.Removed,
		Inserted: s.Inserted,
		Updated:  s.Updated,
		Deleted:  s.Deleted,
		Failures: string(failures),
	}, nil
}

// fieldRows converts the catalog to its published form.
func fieldRows(cat *catalog.Catalog) []schema.Field {
	fields := cat.Fields()
	res := make([]schema.Field, len(fields))
	for i, v := range fields {
		res[i] = schema.Field{
			Path:        v.Path,
			Position:    i,
			Scope:       v.Scope().String(),
			Type:        string(v.Type),
			Cardinality: string(v.Cardinality),
			Requirement: string(v.Requirement),
			Unit:        v.Unit,
			Role:        string(v.Role),
			Values:      strings.Join(v.Values, "|"),
		}
	}
	return res
}
