package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// Source maps one file to the country its rows belong to.
type Source struct {
	Path    string `mapstructure:"path" yaml:"path" json:"path" validate:"required"`
	Country string `mapstructure:"country" yaml:"country" json:"country" validate:"required"`
}

// DefaultSources returns the three cleaned country datasets, relative to the data dir.
func DefaultSources() []Source {
	return []Source{
		{Path: "benin-malanville_clean.csv", Country: "Benin"},
		{Path: "sierraleone-bumbuna_clean.csv", Country: "Sierra Leone"},
		{Path: "togo-bumbuna_clean.csv", Country: "Togo"},
	}
}

// Provider yields the unified table.
type Provider interface {
	Load(ctx context.Context) (*Table, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (*Table, error)

func (f ProviderFunc) Load(ctx context.Context) (*Table, error) { return f(ctx) }

// Loader reads every source and concatenates them in order.
type Loader struct {
	Dir     string
	Sources []Source
	// Progress, when set, receives a byte progress bar per source.
	Progress io.Writer
	Logger   *slog.Logger
}

// NewLoader returns a loader resolving relative source paths against dir.
func NewLoader(dir string, sources []Source) *Loader {
	return &Loader{Dir: dir, Sources: sources}
}

// Load reads all sources. Any failing source aborts the whole load with a
// *DataLoadError; no partial table is returned.
func (l *Loader) Load(ctx context.Context) (*Table, error) {
	if len(l.Sources) == 0 {
		return nil, ErrNoSources
	}
	out := &Table{}
	seen := map[string]struct{}{}
	for _, src := range l.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		part, err := l.loadSource(src)
		if err != nil {
			return nil, err
		}
		for _, c := range part.Columns {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out.Columns = append(out.Columns, c)
		}
		out.Rows = append(out.Rows, part.Rows...)
	}
	if _, ok := seen[ColCountry]; !ok {
		out.Columns = append(out.Columns, ColCountry)
	}
	l.logger().Debug("dataset loaded", "rows", len(out.Rows), "columns", len(out.Columns), "sources", len(l.Sources))
	return out, nil
}

func (l *Loader) resolve(path string) string {
	if filepath.IsAbs(path) || l.Dir == "" {
		return path
	}
	return filepath.Join(l.Dir, path)
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l *Loader) loadSource(src Source) (*Table, error) {
	path := l.resolve(src.Path)
	fail := func(err error) (*Table, error) {
		return nil, &DataLoadError{Source: path, Country: src.Country, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	var in io.Reader = f
	if l.Progress != nil {
		size := int64(-1)
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		bar := progressbar.NewOptions64(size,
			progressbar.OptionSetWriter(l.Progress),
			progressbar.OptionSetDescription(src.Country),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
		defer func() { _ = bar.Finish() }()
		in = io.TeeReader(f, bar)
	}

	raw, err := readerFor(path).Read(in)
	if err != nil {
		return fail(err)
	}
	t, err := buildTable(raw, src.Country)
	if err != nil {
		return fail(err)
	}
	l.logger().Debug("source loaded", "country", src.Country, "path", path, "rows", len(t.Rows))
	return t, nil
}

// buildTable types raw records and assigns the country label, overriding any
// Country column present in the file.
func buildTable(raw *RawTable, country string) (*Table, error) {
	if raw == nil || len(raw.Header) == 0 {
		return nil, ErrEmptySource
	}
	header := make([]string, len(raw.Header))
	for i, h := range raw.Header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = h
	}
	sc := newSchema(header)
	col := func(name string) int {
		if i, ok := sc.index[name]; ok {
			return i
		}
		return -1
	}
	tsIdx, ghiIdx, dniIdx, dhiIdx := col(ColTimestamp), col(ColGHI), col(ColDNI), col(ColDHI)

	t := &Table{Columns: header, Rows: make([]Row, 0, len(raw.Records))}
	for i, rec := range raw.Records {
		line := i + 2 // 1-based, after header
		if blank(rec) {
			continue
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(header), len(rec))
		}
		if len(rec) < len(header) {
			tmp := make([]string, len(header))
			copy(tmp, rec)
			rec = tmp
		}
		row := Row{Country: country, schema: sc, cells: rec}
		if tsIdx >= 0 {
			row.Timestamp = strings.TrimSpace(rec[tsIdx])
		}
		var err error
		if row.GHI, err = measurement(rec, ghiIdx); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColGHI, err)
		}
		if row.DNI, err = measurement(rec, dniIdx); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColDNI, err)
		}
		if row.DHI, err = measurement(rec, dhiIdx); err != nil {
			return nil, fmt.Errorf("line %d: column %s: %w", line, ColDHI, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

var naValues = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "#N/A": {}, "NaN": {}, "nan": {}, "-nan": {}, "null": {}, "NULL": {}, "None": {},
}

func measurement(rec []string, idx int) (float64, error) {
	if idx < 0 {
		return math.NaN(), nil
	}
	v := strings.TrimSpace(rec[idx])
	if _, na := naValues[v]; na {
		return math.NaN(), nil
	}
	f, ok := parseFloat(v)
	if !ok {
		return 0, fmt.Errorf("invalid number %q", v)
	}
	return f, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
