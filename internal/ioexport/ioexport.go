// Package ioexport writes mapped units of a single archive as delimited
// text. It lets users check the field catalog against an archive without
// touching the store.
package ioexport

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"github.com/gnames/gnabcd/pkg/abcd"
	"github.com/gnames/gnabcd/pkg/archive"
	"github.com/gnames/gnabcd/pkg/bms"
	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/mapper"
	"github.com/gnames/gnabcd/pkg/record"
	"github.com/paulmach/orb/encoding/wkt"
)

// ValueSeparator joins values of repeated fields. A separator or a
// backslash inside of a value is escaped with a backslash.
const ValueSeparator = "|"

var valueEscaper = strings.NewReplacer(`\`, `\\`, ValueSeparator, `\`+ValueSeparator)

// JoinValues joins values of a repeated field into one cell.
func JoinValues(vals []string) string {
	res := make([]string, len(vals))
	for i, v := range vals {
		res[i] = valueEscaper.Replace(v)
	}
	return strings.Join(res, ValueSeparator)
}

// SplitValues reverses JoinValues. Values are never empty, so an empty
// cell has no values.
func SplitValues(cell string) []string {
	if cell == "" {
		return nil
	}
	var res []string
	var b strings.Builder
	for i := 0; i < len(cell); i++ {
		switch c := cell[i]; {
		case c == '\\' && i+1 < len(cell):
			i++
			b.WriteByte(cell[i])
		case c == ValueSeparator[0]:
			res = append(res, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(res, b.String())
}

// Stats describes an export.
type Stats struct {
	Documents int
	Units     int
	Invalid   int
	// Georeferenced is the number of units with geometry.
	Georeferenced int
}

// Exporter writes units of an archive.
type Exporter struct {
	fetcher archive.Fetcher
	mapper  *mapper.Mapper
	comma   rune
}

// New creates an Exporter with the given field delimiter.
func New(f archive.Fetcher, m *mapper.Mapper, comma rune) *Exporter {
	if comma == 0 {
		comma = '\t'
	}
	return &Exporter{fetcher: f, mapper: m, comma: comma}
}

// Header returns column names: four fixed columns and one column per
// unit field of the catalog.
func Header(cat *catalog.Catalog) []string {
	res := []string{"unit_key", "valid", "geometry", "canonical_name"}
	for _, v := range cat.UnitFields() {
		res = append(res, v.Path)
	}
	return res
}

// Export fetches the archive at src and writes its units to w.
func (e *Exporter) Export(
	ctx context.Context,
	src string,
	w io.Writer,
) (Stats, error) {
	var res Stats
	datasetID := path.Base(src)

	a, err := e.fetcher.Fetch(ctx, bms.Archive{
		DatasetID: datasetID,
		SourceURL: src,
	})
	if err != nil {
		return res, err
	}
	defer a.Close()

	cw := csv.NewWriter(w)
	cw.Comma = e.comma

	fields := e.mapper.Catalog().UnitFields()
	if err = cw.Write(Header(e.mapper.Catalog())); err != nil {
		return res, ExportError(err)
	}

	for doc, err := range a.Documents() {
		if err != nil {
			return res, err
		}
		if err = ctx.Err(); err != nil {
			return res, err
		}
		res.Documents++

		s := abcd.Parse(doc.Body, doc.Name)
		for raw, err := range s.Units() {
			if err != nil {
				return res, err
			}
			r := e.mapper.Map(datasetID, raw)
			res.Units++
			if !r.Valid {
				res.Invalid++
			}
			if r.Geometry != nil {
				res.Georeferenced++
			}
			if err = cw.Write(row(r, fields)); err != nil {
				return res, ExportError(err)
			}
		}
		slog.Debug("Document exported",
			"document", doc.Name, "version", s.Version())
	}

	cw.Flush()
	if err = cw.Error(); err != nil {
		return res, ExportError(err)
	}
	return res, nil
}

func row(r record.Record, fields []catalog.FieldDefinition) []string {
	var geom string
	if r.Geometry != nil {
		geom = wkt.MarshalString(*r.Geometry)
	}
	res := make([]string, 0, len(fields)+4)
	res = append(res,
		r.UnitKey,
		strconv.FormatBool(r.Valid),
		geom,
		r.CanonicalName,
	)
	for _, f := range fields {
		vals := r.Attributes[f.Path]
		lex := make([]string, len(vals))
		for i, v := range vals {
			lex[i] = v.Lexical
		}
		res = append(res, JoinValues(lex))
	}
	return res
}
