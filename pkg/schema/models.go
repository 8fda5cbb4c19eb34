// Package schema provides database schema models for gnabcd.
//
// PostgreSQL schema is created by GORM AutoMigrate from gorm tags.
// SQLite schema is generated from db and sqlite tags (see ddl.go).
package schema

import "time"

// DDLGenerator defines how Go models generate SQLite DDL.
type DDLGenerator interface {
	// TableDDL returns the CREATE TABLE statement for this model.
	TableDDL() string

	// IndexDDL returns CREATE INDEX statements for this model.
	// Returns empty slice if no indexes needed.
	IndexDDL() []string

	// TableName returns the table name for this model.
	TableName() string
}

// Unit is a synchronized ABCD unit of a dataset.
type Unit struct {
	// DatasetID refers to the dataset of the unit.
	DatasetID string `db:"dataset_id" gorm:"primaryKey;type:text" sqlite:"TEXT NOT NULL"`

	// UnitKey is the UnitID, or a positional key if the unit has none.
	UnitKey string `db:"unit_key" gorm:"primaryKey;type:text" sqlite:"TEXT NOT NULL"`

	// ID is UUID v5 of "dataset_id|unit_key".
	ID string `db:"id" gorm:"column:id;type:uuid;not null;uniqueIndex" sqlite:"TEXT NOT NULL UNIQUE"`

	// Attributes is a JSON object of catalog paths to typed values.
	Attributes string `db:"attributes" gorm:"type:jsonb;not null" sqlite:"TEXT NOT NULL"`

	Longitude *float64 `db:"longitude" gorm:"type:double precision" sqlite:"REAL"`
	Latitude  *float64 `db:"latitude" gorm:"type:double precision" sqlite:"REAL"`

	// Geom is a WGS84 point. PostGIS geometry in PostgreSQL, WKT in SQLite.
	Geom *string `db:"geom" gorm:"type:geometry(Point,4326);index:idx_units_geom,type:gist" sqlite:"TEXT"`

	// CanonicalName is the canonical form of the scientific name.
	CanonicalName string `db:"canonical_name" gorm:"type:text;index" sqlite:"TEXT NOT NULL DEFAULT ''"`

	UpdatedAt time.Time `db:"updated_at" gorm:"not null" sqlite:"TEXT NOT NULL"`
}

// TableName returns the units table name.
func (Unit) TableName() string {
	return "units"
}

// Dataset is the synchronized state of a dataset.
type Dataset struct {
	DatasetID string `db:"dataset_id" gorm:"primaryKey;type:text" sqlite:"TEXT PRIMARY KEY"`

	// VersionMarker is the version of the last committed archive.
	VersionMarker string `db:"version_marker" gorm:"type:text;not null" sqlite:"TEXT NOT NULL"`

	Title       string `db:"title" gorm:"type:text" sqlite:"TEXT NOT NULL DEFAULT ''"`
	LandingPage string `db:"landing_page" gorm:"type:text" sqlite:"TEXT NOT NULL DEFAULT ''"`
	Provider    string `db:"provider" gorm:"type:text" sqlite:"TEXT NOT NULL DEFAULT ''"`
	SourceURL   string `db:"source_url" gorm:"type:text" sqlite:"TEXT NOT NULL DEFAULT ''"`

	// Attributes are dataset-level catalog fields as JSON.
	Attributes string `db:"attributes" gorm:"type:jsonb;not null;default:'{}'" sqlite:"TEXT NOT NULL DEFAULT '{}'"`

	// MissingCycles counts consecutive crawls without the dataset.
	MissingCycles int `db:"missing_cycles" gorm:"not null;default:0" sqlite:"INTEGER NOT NULL DEFAULT 0"`

	UnitsCount int `db:"units_count" gorm:"not null;default:0" sqlite:"INTEGER NOT NULL DEFAULT 0"`

	UpdatedAt time.Time `db:"updated_at" gorm:"not null" sqlite:"TEXT NOT NULL"`
}

// TableName returns the datasets table name.
func (Dataset) TableName() string {
	return "datasets"
}

// Field is a published field catalog definition.
type Field struct {
	Path        string `db:"path" gorm:"primaryKey;type:text" sqlite:"TEXT PRIMARY KEY"`
	Position    int    `db:"position" gorm:"not null" sqlite:"INTEGER NOT NULL"`
	Scope       string `db:"scope" gorm:"type:text;not null" sqlite:"TEXT NOT NULL"`
	Type        string `db:"type" gorm:"type:text;not null" sqlite:"TEXT NOT NULL"`
	Cardinality string `db:"cardinality" gorm:"type:text;not null" sqlite:"TEXT NOT NULL"`
	Requirement string `db:"requirement" gorm:"type:text;not null" sqlite:"TEXT NOT NULL"`
	Unit        string `db:"unit" gorm:"type:text" sqlite:"TEXT NOT NULL DEFAULT ''"`
	Role        string `db:"role" gorm:"type:text" sqlite:"TEXT NOT NULL DEFAULT ''"`

	// Values are allowed enumeration values separated by '|'.
	Values string `db:"values" gorm:"column:values;type:text" sqlite:"TEXT NOT NULL DEFAULT ''"`
}

// TableName returns the fields table name.
func (Field) TableName() string {
	return "fields"
}

// CrawlRun is a summary of a crawl cycle.
type CrawlRun struct {
	ID       string    `db:"id" gorm:"primaryKey;type:uuid" sqlite:"TEXT PRIMARY KEY"`
	Started  time.Time `db:"started" gorm:"not null" sqlite:"TEXT NOT NULL"`
	Finished time.Time `db:"finished" gorm:"not null" sqlite:"TEXT NOT NULL"`
	Done     int       `db:"done" gorm:"not null" sqlite:"INTEGER NOT NULL"`
	Failed   int       `db:"failed" gorm:"not null" sqlite:"INTEGER NOT NULL"`
	Skipped  int       `db:"skipped" gorm:"not null" sqlite:"INTEGER NOT NULL"`
	Removed  int       `db:"removed" gorm:"not null" sqlite:"INTEGER NOT NULL"`
	Inserted int       `db:"inserted" gorm:"not null" sqlite:"INTEGER NOT NULL"`
	Updated  int       `db:"updated" gorm:"not null" sqlite:"INTEGER NOT NULL"`
	Deleted  int       `db:"deleted" gorm:"not null" sqlite:"INTEGER NOT NULL"`

	// Failures is a JSON array of {dataset, kind, error}.
	Failures string `db:"failures" gorm:"type:jsonb;not null;default:'[]'" sqlite:"TEXT NOT NULL DEFAULT '[]'"`
}

// TableName returns the crawl_runs table name.
func (CrawlRun) TableName() string {
	return "crawl_runs"
}
