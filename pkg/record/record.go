// Package record describes mapped units (records) and persisted
// snapshots of datasets.
package record

import (
	"maps"
	"slices"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/paulmach/orb"
)

// Value is a coerced field value. Lexical is the canonical text form of
// the value for its type, so two values are equal when their types and
// lexical forms are equal.
type Value struct {
	Type    catalog.SemanticType `json:"t"`
	Lexical string               `json:"v"`
}

// Attributes map canonical field paths to ordered values.
type Attributes map[string][]Value

// Equal compares attributes structurally.
func (a Attributes) Equal(b Attributes) bool {
	return maps.EqualFunc(a, b, func(x, y []Value) bool {
		return slices.Equal(x, y)
	})
}

// Record is a unit mapped through the field catalog.
type Record struct {
	DatasetID string
	// UnitKey is unique within a dataset.
	UnitKey    string
	Attributes Attributes
	// Geometry is a WGS84 point, nil if the unit has no usable
	// coordinates.
	Geometry *orb.Point
	// CanonicalName is the simple canonical form of the scientific name.
	CanonicalName string

	// Valid is false when a mandatory field has no value.
	Valid bool
	// Violations lists paths of missing mandatory fields.
	Violations []string
	// Source shows where the unit was found, like "doc.xml#12".
	Source string
}

// SameContent compares attributes, geometry and canonical name of two
// records. Keys, validity and sources are not compared.
func (r Record) SameContent(o Record) bool {
	if r.CanonicalName != o.CanonicalName {
		return false
	}
	if (r.Geometry == nil) != (o.Geometry == nil) {
		return false
	}
	if r.Geometry != nil && !r.Geometry.Equal(*o.Geometry) {
		return false
	}
	return r.Attributes.Equal(o.Attributes)
}

// Longitude returns the longitude of the geometry.
func (r Record) Longitude() (float64, bool) {
	if r.Geometry == nil {
		return 0, false
	}
	return r.Geometry.Lon(), true
}

// Latitude returns the latitude of the geometry.
func (r Record) Latitude() (float64, bool) {
	if r.Geometry == nil {
		return 0, false
	}
	return r.Geometry.Lat(), true
}

// Snapshot is the persisted state of one dataset.
type Snapshot struct {
	DatasetID string
	// VersionMarker of the last successful commit, empty for datasets
	// that were never committed.
	VersionMarker string
	// Records are keyed by UnitKey.
	Records map[string]Record
}

// EmptySnapshot is the state of a dataset that has nothing stored.
func EmptySnapshot(datasetID string) Snapshot {
	return Snapshot{DatasetID: datasetID, Records: make(map[string]Record)}
}

// Keys returns sorted unit keys of the snapshot.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s.Records))
}
