package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Well-known column names.
const (
	ColTimestamp = "Timestamp"
	ColGHI       = "GHI"
	ColDNI       = "DNI"
	ColDHI       = "DHI"
	ColCountry   = "Country"
)

// MeasurementColumns are the irradiance columns every source is expected to carry.
var MeasurementColumns = []string{ColGHI, ColDNI, ColDHI}

// Row is one timestamped observation. Rows are values; nothing mutates them
// after the loader builds them.
type Row struct {
	Timestamp string
	Country   string
	GHI       float64
	DNI       float64
	DHI       float64

	// raw cells of the source record, indexed through schema
	schema *schema
	cells  []string
}

type schema struct {
	index map[string]int
}

func newSchema(header []string) *schema {
	s := &schema{index: make(map[string]int, len(header))}
	for i, h := range header {
		if _, dup := s.index[h]; !dup {
			s.index[h] = i
		}
	}
	return s
}

// Cell returns the textual value of a column for this row. GHI, DNI and DHI
// are rendered from their parsed values, shortest round-trip, so NaN and NA
// tokens come out empty. Other columns return the raw source text; absent
// columns yield "".
func (r Row) Cell(col string) string {
	switch col {
	case ColCountry:
		return r.Country
	case ColGHI:
		return formatFloat(r.GHI)
	case ColDNI:
		return formatFloat(r.DNI)
	case ColDHI:
		return formatFloat(r.DHI)
	}
	if r.schema != nil {
		if i, ok := r.schema.index[col]; ok && i < len(r.cells) {
			return r.cells[i]
		}
	}
	if col == ColTimestamp {
		return r.Timestamp
	}
	return ""
}

// Value returns the numeric value of a column, or NaN when the cell is empty,
// absent or not a number.
func (r Row) Value(col string) float64 {
	switch col {
	case ColGHI:
		return r.GHI
	case ColDNI:
		return r.DNI
	case ColDHI:
		return r.DHI
	}
	f, ok := parseFloat(r.Cell(col))
	if !ok {
		return math.NaN()
	}
	return f
}

// Time parses the row timestamp.
func (r Row) Time() (time.Time, bool) {
	return parseTimeMaybe(strings.TrimSpace(r.Timestamp))
}

// Table is an ordered sequence of rows with a shared column list.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable builds a table from explicit columns and rows.
func NewTable(columns []string, rows ...Row) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols, Rows: rows}
}

// Len returns the number of rows; a nil table has none.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether col is part of the table schema.
func (t *Table) HasColumn(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Countries lists distinct country labels in order of first appearance.
func (t *Table) Countries() []string {
	if t == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, r := range t.Rows {
		if _, ok := seen[r.Country]; ok {
			continue
		}
		seen[r.Country] = struct{}{}
		out = append(out, r.Country)
	}
	return out
}

// Head returns a table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if t == nil {
		return NewTable(nil)
	}
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return NewTable(t.Columns, t.Rows[:n:n]...)
}

// CountrySet is a selection of country labels.
type CountrySet map[string]struct{}

// NewCountrySet builds a selection from labels.
func NewCountrySet(labels ...string) CountrySet {
	s := make(CountrySet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Has reports whether label is selected.
func (s CountrySet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05",
	"2006-01-02 15:04", "2006-01-02", "2006/01/02", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
