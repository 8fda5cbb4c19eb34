package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// generateDDL creates a CREATE TABLE statement from db and sqlite
// struct tags. Constraints are appended after the columns.
func generateDDL(model any, tableName string, constraints ...string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var columns []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("sqlite")

		if dbTag != "" && ddlTag != "" {
			columns = append(columns, fmt.Sprintf("    %q %s", dbTag, ddlTag))
		}
	}
	for _, v := range constraints {
		columns = append(columns, "    "+v)
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n);",
		tableName,
		strings.Join(columns, ",\n"))

	return ddl
}

func (u Unit) TableDDL() string {
	return generateDDL(u, u.TableName(), "PRIMARY KEY (dataset_id, unit_key)")
}

func (u Unit) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_units_canonical_name ON units(canonical_name);",
		"CREATE INDEX IF NOT EXISTS idx_units_lon_lat ON units(longitude, latitude);",
	}
}

func (d Dataset) TableDDL() string {
	return generateDDL(d, d.TableName())
}

func (d Dataset) IndexDDL() []string {
	return nil
}

func (f Field) TableDDL() string {
	return generateDDL(f, f.TableName())
}

func (f Field) IndexDDL() []string {
	return nil
}

func (r CrawlRun) TableDDL() string {
	return generateDDL(r, r.TableName())
}

func (r CrawlRun) IndexDDL() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_crawl_runs_started ON crawl_runs(started);",
	}
}

// SQLiteDDL returns statements that create the SQLite schema.
func SQLiteDDL() []string {
	var res []string
	for _, v := range AllModels() {
		g := v.(DDLGenerator)
		res = append(res, g.TableDDL())
		res = append(res, g.IndexDDL()...)
	}
	return res
}
