package mapper

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gnames/gnabcd/pkg/catalog"
	"github.com/gnames/gnabcd/pkg/record"
)

// dateLayouts are tried in order, a parsed date is written back in the
// canonical layout of its precision.
var dateLayouts = []struct {
	parse, format string
}{
	{time.RFC3339, time.RFC3339},
	{"2006-01-02T15:04:05", "2006-01-02T15:04:05"},
	{"2006-01-02T15:04", "2006-01-02T15:04:05"},
	{"2006-01-02 15:04:05", "2006-01-02T15:04:05"},
	{"2006-01-02", "2006-01-02"},
	{"2006-01", "2006-01"},
	{"2006", "2006"},
}

// coerce converts a raw string to a typed value of the field. It returns
// false if the value cannot be converted.
func coerce(f catalog.FieldDefinition, raw string) (record.Value, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return record.Value{}, false
	}
	res := record.Value{Type: f.Type}

	switch f.Type {
	case catalog.Decimal:
		d, ok := parseDecimal(s)
		if !ok {
			return record.Value{}, false
		}
		res.Lexical = strconv.FormatFloat(d, 'g', -1, 64)
	case catalog.Integer:
		i, ok := parseInteger(s)
		if !ok {
			return record.Value{}, false
		}
		res.Lexical = strconv.FormatInt(i, 10)
	case catalog.Date:
		d, ok := parseDate(s)
		if !ok {
			return record.Value{}, false
		}
		res.Lexical = d
	case catalog.Enumeration:
		v, ok := matchEnum(f.Values, s)
		if !ok {
			return record.Value{}, false
		}
		res.Lexical = v
	default:
		res.Lexical = s
	}
	return res, true
}

func parseDecimal(s string) (float64, bool) {
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// decimal comma is common in European collections
		if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
			return 0, false
		}
		d, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return 0, false
		}
	}
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, false
	}
	return d, true
}

func parseInteger(s string) (int64, bool) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, true
	}
	d, ok := parseDecimal(s)
	// float64(math.MaxInt64) rounds up to 2^63, which overflows int64.
	if !ok || d != math.Trunc(d) || d >= 0x1p63 || d < -0x1p63 {
		return 0, false
	}
	return int64(d), true
}

func parseDate(s string) (string, bool) {
	for _, v := range dateLayouts {
		t, err := time.Parse(v.parse, s)
		if err == nil {
			return t.Format(v.format), true
		}
	}
	return "", false
}

func matchEnum(values []string, s string) (string, bool) {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return v, true
		}
	}
	return "", false
}
