package catalog

import (
	"slices"
	"strings"
)

// Scope tells if a field belongs to a unit or to the whole dataset.
type Scope int

const (
	// UnitScope fields are found under DataSet/Units/Unit.
	UnitScope Scope = iota
	// DatasetScope fields are found under DataSet outside of Units.
	DatasetScope
)

func (s Scope) String() string {
	if s == DatasetScope {
		return "dataset"
	}
	return "unit"
}

const (
	unitsElem   = "Units"
	unitElem    = "Unit"
	datasetElem = "DataSet"
	unitRoot    = "/DataSets/DataSet/Units/Unit/"
	datasetRoot = "/DataSets/DataSet/"
)

// LocalName removes a namespace prefix from an element name,
// "abcd:Unit" becomes "Unit".
func LocalName(s string) string {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// SplitPath normalizes a field path into its scope and the element names
// relative to the scope anchor. The anchor is the first Unit element
// directly under Units for unit fields, and the first DataSet element for
// dataset fields. Paths without any anchor are treated as relative to a
// Unit. Namespace prefixes are dropped, so document root naming does not
// matter.
func SplitPath(path string) (Scope, []string) {
	var parts []string
	for _, v := range strings.Split(path, "/") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		parts = append(parts, LocalName(v))
	}

	for i := 1; i < len(parts); i++ {
		if parts[i] == unitElem && parts[i-1] == unitsElem {
			return UnitScope, parts[i+1:]
		}
	}
	if i := slices.Index(parts, datasetElem); i >= 0 {
		return DatasetScope, parts[i+1:]
	}
	return UnitScope, parts
}

// JoinRel creates the key used by the parser for relative paths.
func JoinRel(elems []string) string {
	return strings.Join(elems, "/")
}

// CanonicalPath returns the absolute form of a path, the form used as
// attribute keys in records and stores.
func CanonicalPath(scope Scope, rel []string) string {
	if scope == DatasetScope {
		return datasetRoot + JoinRel(rel)
	}
	return unitRoot + JoinRel(rel)
}
