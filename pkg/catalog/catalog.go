// Package catalog provides the field catalog: the declarative schema that
// tells which ABCD elements are extracted, how their values are typed, and
// which of them are required. A Catalog is immutable after Load and can be
// shared by any number of goroutines.
package catalog

import (
	"slices"
	"strings"
)

// SemanticType is the type values of a field are coerced to.
type SemanticType string

const (
	Text        SemanticType = "text"
	Decimal     SemanticType = "decimal"
	Integer     SemanticType = "integer"
	Date        SemanticType = "date"
	Enumeration SemanticType = "enumeration"
)

// Cardinality tells if a field keeps one value or a sequence of values.
type Cardinality string

const (
	Single   Cardinality = "single"
	Repeated Cardinality = "repeated"
)

// Requirement is the importance of a field.
type Requirement string

const (
	// Mandatory fields must have a value, otherwise the unit is invalid.
	Mandatory Requirement = "mandatory"
	// Recommended fields are reported when missing.
	Recommended Requirement = "recommended"
	Optional    Requirement = "optional"
)

// Role marks fields with a special meaning for mapping.
type Role string

const (
	NoRole         Role = ""
	UnitID         Role = "unitId"
	Longitude      Role = "longitude"
	Latitude       Role = "latitude"
	ScientificName Role = "scientificName"
	DatasetTitle   Role = "datasetTitle"
	LandingPage    Role = "landingPage"
)

// FieldDefinition describes one field of the catalog. Its identity is
// the path.
type FieldDefinition struct {
	// Path is the canonical absolute path of the field, for example
	// /DataSets/DataSet/Units/Unit/UnitID.
	Path        string
	Type        SemanticType
	Cardinality Cardinality
	Requirement Requirement
	// Unit of measurement, informational.
	Unit string
	// Values lists allowed values of an enumeration.
	Values []string
	Role   Role

	scope Scope
	rel   []string
}

// Scope returns the scope of the field.
func (f FieldDefinition) Scope() Scope {
	return f.scope
}

// Rel returns the path relative to the scope anchor, in the form
// produced by the ABCD parser.
func (f FieldDefinition) Rel() string {
	return JoinRel(f.rel)
}

// Catalog is an indexed, read-only collection of field definitions.
type Catalog struct {
	fields []FieldDefinition
	index  map[string]int
	roles  map[Role]int
}

var knownTypes = map[SemanticType]struct{}{
	Text: {}, Decimal: {}, Integer: {}, Date: {}, Enumeration: {},
}

var knownCardinalities = map[Cardinality]struct{}{
	Single: {}, Repeated: {},
}

var knownRequirements = map[Requirement]struct{}{
	Mandatory: {}, Recommended: {}, Optional: {},
}

var roleScopes = map[Role]Scope{
	UnitID:         UnitScope,
	Longitude:      UnitScope,
	Latitude:       UnitScope,
	ScientificName: UnitScope,
	DatasetTitle:   DatasetScope,
	LandingPage:    DatasetScope,
}

// Load validates field definitions and builds a Catalog. Empty
// cardinality defaults to single and empty requirement to optional.
// It returns SchemaError on empty or duplicate paths, unknown tokens,
// misplaced or duplicate roles, enumerations without values, and an
// empty list of definitions.
func Load(defs []FieldDefinition) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, EmptyCatalogError()
	}
	res := &Catalog{
		fields: make([]FieldDefinition, 0, len(defs)),
		index:  make(map[string]int, len(defs)),
		roles:  make(map[Role]int),
	}

	for i, v := range defs {
		scope, rel := SplitPath(v.Path)
		if len(rel) == 0 {
			return nil, EmptyPathError(i, v.Path)
		}
		v.scope = scope
		v.rel = rel
		v.Path = CanonicalPath(scope, rel)

		if v.Cardinality == "" {
			v.Cardinality = Single
		}
		if v.Requirement == "" {
			v.Requirement = Optional
		}
		if _, ok := knownTypes[v.Type]; !ok {
			return nil, UnknownTokenError("type", string(v.Type), v.Path)
		}
		if _, ok := knownCardinalities[v.Cardinality]; !ok {
			return nil, UnknownTokenError(
				"cardinality", string(v.Cardinality), v.Path,
			)
		}
		if _, ok := knownRequirements[v.Requirement]; !ok {
			return nil, UnknownTokenError(
				"requirement", string(v.Requirement), v.Path,
			)
		}
		if v.Type == Enumeration && len(v.Values) == 0 {
			return nil, EnumerationValuesError(v.Path)
		}
		v.Values = slices.Clone(v.Values)

		if _, ok := res.index[v.Path]; ok {
			return nil, DuplicatePathError(v.Path)
		}

		if v.Role != NoRole {
			if err := res.checkRole(v); err != nil {
				return nil, err
			}
			res.roles[v.Role] = len(res.fields)
		}

		res.index[v.Path] = len(res.fields)
		res.fields = append(res.fields, v)
	}

	res.assignDefaultRoles()

	_, hasLon := res.roles[Longitude]
	_, hasLat := res.roles[Latitude]
	if hasLon != hasLat {
		missing := Latitude
		if hasLat {
			missing = Longitude
		}
		return nil, CoordinatePairError(missing)
	}

	return res, nil
}

func (c *Catalog) checkRole(f FieldDefinition) error {
	scope, ok := roleScopes[f.Role]
	if !ok {
		return UnknownTokenError("role", string(f.Role), f.Path)
	}
	if scope != f.scope {
		return RoleScopeError(f.Role, f.Path, scope)
	}
	if (f.Role == Longitude || f.Role == Latitude) && f.Type != Decimal {
		return RoleTypeError(f.Role, f.Path, Decimal)
	}
	if i, ok := c.roles[f.Role]; ok {
		return DuplicateRoleError(f.Role, c.fields[i].Path, f.Path)
	}
	return nil
}

// assignDefaultRoles gives roles to well-known ABCD fields when the
// catalog does not declare them.
func (c *Catalog) assignDefaultRoles() {
	wellKnown := []struct {
		role   Role
		scope  Scope
		suffix string
		typ    SemanticType
	}{
		{UnitID, UnitScope, "UnitID", ""},
		{Longitude, UnitScope, "CoordinatesLatLong/LongitudeDecimal", Decimal},
		{Latitude, UnitScope, "CoordinatesLatLong/LatitudeDecimal", Decimal},
		{ScientificName, UnitScope,
			"ScientificName/FullScientificNameString", ""},
		{DatasetTitle, DatasetScope,
			"Metadata/Description/Representation/Title", ""},
		{LandingPage, DatasetScope,
			"Metadata/Description/Representation/URI", ""},
	}

	for _, v := range wellKnown {
		if _, ok := c.roles[v.role]; ok {
			continue
		}
		// coordinates are assigned as a pair only
		if v.role == Longitude || v.role == Latitude {
			if _, ok := c.roles[Longitude]; ok {
				continue
			}
			if _, ok := c.roles[Latitude]; ok {
				continue
			}
		}
		for i, f := range c.fields {
			if f.Role != NoRole || f.scope != v.scope {
				continue
			}
			if v.typ != "" && f.Type != v.typ {
				continue
			}
			rel := f.Rel()
			if rel == v.suffix || strings.HasSuffix(rel, "/"+v.suffix) {
				c.fields[i].Role = v.role
				c.roles[v.role] = i
				break
			}
		}
	}

	_, hasLon := c.roles[Longitude]
	_, hasLat := c.roles[Latitude]
	if hasLon && !hasLat {
		c.dropRole(Longitude)
	}
	if hasLat && !hasLon {
		c.dropRole(Latitude)
	}
}

func (c *Catalog) dropRole(r Role) {
	i := c.roles[r]
	c.fields[i].Role = NoRole
	delete(c.roles, r)
}

// Lookup finds a field definition by its path. The path can use any
// root naming or namespace prefixes.
func (c *Catalog) Lookup(path string) (FieldDefinition, bool) {
	scope, rel := SplitPath(path)
	i, ok := c.index[CanonicalPath(scope, rel)]
	if !ok {
		return FieldDefinition{}, false
	}
	return c.fields[i], true
}

// ByRole returns the field that has the given role.
func (c *Catalog) ByRole(r Role) (FieldDefinition, bool) {
	i, ok := c.roles[r]
	if !ok {
		return FieldDefinition{}, false
	}
	return c.fields[i], true
}

// MandatoryFields returns all mandatory fields in catalog order.
func (c *Catalog) MandatoryFields() []FieldDefinition {
	var res []FieldDefinition
	for _, v := range c.fields {
		if v.Requirement == Mandatory {
			res = append(res, v)
		}
	}
	return res
}

// Fields returns all definitions in catalog order.
func (c *Catalog) Fields() []FieldDefinition {
	return slices.Clone(c.fields)
}

// UnitFields returns unit-scope definitions in catalog order.
func (c *Catalog) UnitFields() []FieldDefinition {
	return c.byScope(UnitScope)
}

// DatasetFields returns dataset-scope definitions in catalog order.
func (c *Catalog) DatasetFields() []FieldDefinition {
	return c.byScope(DatasetScope)
}

func (c *Catalog) byScope(s Scope) []FieldDefinition {
	var res []FieldDefinition
	for _, v := range c.fields {
		if v.scope == s {
			res = append(res, v)
		}
	}
	return res
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	return len(c.fields)
}
