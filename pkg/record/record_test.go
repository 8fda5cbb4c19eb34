package record_test

import (
	"testing"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func rec(attrs record.Attributes, geom *orb.Point, name string) record.Record {
	return record.Record{
		DatasetID:     "ds",
		UnitKey:       "u1",
		Attributes:    attrs,
		Geometry:      geom,
		CanonicalName: name,
		Valid:         true,
	}
}

func TestSameContent(t *testing.T) {
	txt := func(s string) []record.Value {
		return []record.Value{{Type: catalog.Text, Lexical: s}}
	}
	pt := func(lon, lat float64) *orb.Point {
		p := orb.Point{lon, lat}
		return &p
	}

	base := rec(record.Attributes{"/a": txt("x")}, pt(10, 50), "Abies alba")

	tests := []struct {
		name  string
		other record.Record
		same  bool
	}{
		{"identical copy", rec(record.Attributes{"/a": txt("x")}, pt(10, 50), "Abies alba"), true},
		{"different value", rec(record.Attributes{"/a": txt("y")}, pt(10, 50), "Abies alba"), false},
		{"extra attribute", rec(record.Attributes{"/a": txt("x"), "/b": txt("x")}, pt(10, 50), "Abies alba"), false},
		{"different type", rec(record.Attributes{"/a": {{Type: catalog.Decimal, Lexical: "x"}}}, pt(10, 50), "Abies alba"), false},
		{"value order", rec(record.Attributes{"/a": append(txt("x"), txt("y")...)}, pt(10, 50), "Abies alba"), false},
		{"no geometry", rec(record.Attributes{"/a": txt("x")}, nil, "Abies alba"), false},
		{"moved geometry", rec(record.Attributes{"/a": txt("x")}, pt(10, 51), "Abies alba"), false},
		{"other name", rec(record.Attributes{"/a": txt("x")}, pt(10, 50), "Abies"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, base.SameContent(tt.other))
			assert.Equal(t, tt.same, tt.other.SameContent(base))
		})
	}
}

func TestSnapshotKeys(t *testing.T) {
	s := record.EmptySnapshot("ds")
	s.Records["b"] = record.Record{UnitKey: "b"}
	s.Records["a"] = record.Record{UnitKey: "a"}
	assert.Equal(t, []string{"a", "b"}, s.Keys())
}
