// Package mapper projects raw ABCD units through the field catalog into
// typed records. Mapping never fails: values that cannot be coerced are
// dropped field by field, and units that lose a mandatory field are
// marked invalid.
package mapper

import (
	"fmt"
	"strconv"

	"github.com/gnames/gnabcd/pkg/abcd"
	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/parserpool"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/paulmach/orb"
)

// Mapper converts raw units into records. It is safe for concurrent use
// if the name parser is.
type Mapper struct {
	cat     *catalog.Catalog
	fields  []catalog.FieldDefinition
	names   parserpool.Pool
	idField *catalog.FieldDefinition
	lon     *catalog.FieldDefinition
	lat     *catalog.FieldDefinition
	sciName *catalog.FieldDefinition
}

// Option configures a Mapper.
type Option func(*Mapper)

// OptNameParser adds canonical forms of scientific names to records.
func OptNameParser(p parserpool.Pool) Option {
	return func(m *Mapper) {
		m.names = p
	}
}

// New creates a Mapper for the catalog.
func New(cat *catalog.Catalog, opts ...Option) *Mapper {
	res := &Mapper{
		cat:    cat,
		fields: cat.UnitFields(),
	}
	res.idField = role(cat, catalog.UnitID)
	res.lon = role(cat, catalog.Longitude)
	res.lat = role(cat, catalog.Latitude)
	res.sciName = role(cat, catalog.ScientificName)
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func role(cat *catalog.Catalog, r catalog.Role) *catalog.FieldDefinition {
	f, ok := cat.ByRole(r)
	if !ok {
		return nil
	}
	return &f
}

// Catalog returns the field catalog of the mapper.
func (m *Mapper) Catalog() *catalog.Catalog {
	return m.cat
}

// Map converts a raw unit to a record of the dataset.
func (m *Mapper) Map(datasetID string, raw abcd.RawUnit) record.Record {
	res := record.Record{
		DatasetID:  datasetID,
		Attributes: m.attributes(m.fields, raw.Values),
		Source:     raw.Document + "#" + strconv.Itoa(raw.Index),
		Valid:      true,
	}

	for _, f := range m.cat.MandatoryFields() {
		if f.Scope() != catalog.UnitScope {
			continue
		}
		if len(res.Attributes[f.Path]) == 0 {
			res.Valid = false
			res.Violations = append(res.Violations, f.Path)
		}
	}

	res.UnitKey = m.unitKey(res.Attributes, raw)
	res.Geometry = m.geometry(res.Attributes)

	if m.names != nil && m.sciName != nil {
		if vals := res.Attributes[m.sciName.Path]; len(vals) > 0 {
			res.CanonicalName = m.names.Canonical(vals[0].Lexical)
		}
	}
	return res
}

// Dataset is the mapped dataset-level metadata.
type Dataset struct {
	Attributes  record.Attributes
	Title       string
	LandingPage string
	// Violations lists missing mandatory dataset fields.
	Violations []string
}

// MapDataset converts dataset-level values. Missing mandatory dataset
// fields are reported but do not invalidate units.
func (m *Mapper) MapDataset(raw abcd.RawValues) Dataset {
	res := Dataset{
		Attributes: m.attributes(m.cat.DatasetFields(), raw),
	}
	for _, f := range m.cat.MandatoryFields() {
		if f.Scope() != catalog.DatasetScope {
			continue
		}
		if len(res.Attributes[f.Path]) == 0 {
			res.Violations = append(res.Violations, f.Path)
		}
	}
	res.Title = m.first(res.Attributes, catalog.DatasetTitle)
	res.LandingPage = m.first(res.Attributes, catalog.LandingPage)
	return res
}

func (m *Mapper) first(attrs record.Attributes, r catalog.Role) string {
	f, ok := m.cat.ByRole(r)
	if !ok {
		return ""
	}
	if vals := attrs[f.Path]; len(vals) > 0 {
		return vals[0].Lexical
	}
	return ""
}

func (m *Mapper) attributes(
	fields []catalog.FieldDefinition,
	raw abcd.RawValues,
) record.Attributes {
	res := make(record.Attributes)
	for _, f := range fields {
		rawVals := raw[f.Rel()]
		var vals []record.Value
		for _, v := range rawVals {
			val, ok := coerce(f, v)
			if !ok {
				continue
			}
			vals = append(vals, val)
			if f.Cardinality == catalog.Single {
				break
			}
		}
		if len(vals) > 0 {
			res[f.Path] = vals
		}
	}
	return res
}

// unitKey uses the unit identifier when it is present, otherwise the
// position of the unit in its document.
func (m *Mapper) unitKey(attrs record.Attributes, raw abcd.RawUnit) string {
	if m.idField != nil {
		if vals := attrs[m.idField.Path]; len(vals) > 0 {
			return vals[0].Lexical
		}
	}
	return PositionalKey(raw.Document, raw.Index)
}

// PositionalKey is the key of a unit without identifier. It only
// depends on the position of the unit, so identical archives produce
// identical keys.
func PositionalKey(document string, index int) string {
	return fmt.Sprintf("@%s#%d", document, index)
}

func (m *Mapper) geometry(attrs record.Attributes) *orb.Point {
	if m.lon == nil || m.lat == nil {
		return nil
	}
	lons, lats := attrs[m.lon.Path], attrs[m.lat.Path]
	if len(lons) == 0 || len(lats) == 0 {
		return nil
	}
	lon, err := strconv.ParseFloat(lons[0].Lexical, 64)
	if err != nil {
		return nil
	}
	lat, err := strconv.ParseFloat(lats[0].Lexical, 64)
	if err != nil {
		return nil
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return nil
	}
	res := orb.Point{lon, lat}
	return &res
}
