// Package export writes tables and derived views as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/gzip"

	"github.com/KaramelBytes/solardash/internal/analysis"
	"github.com/KaramelBytes/solardash/internal/dataset"
	"github.com/KaramelBytes/solardash/internal/utils"
)

// DefaultFileName is the name offered for a filtered-table download.
const DefaultFileName = "filtered_solar_data.csv"

// WriteTable writes t as CSV: header row of t.Columns, one record per row, no
// index column. NaN and absent cells are written empty.
func WriteTable(w io.Writer, t *dataset.Table) error {
	cw := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	if t == nil {
		t = dataset.NewTable(nil)
	}
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			rec[i] = r.Cell(c)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes one record per country with Country, Rows and a
// <column>_mean, <column>_median, <column>_std triple per summarized column.
func WriteSummary(w io.Writer, s *analysis.Summary) error {
	cw := gocsv.NewSafeCSVWriter(csv.NewWriter(w))
	if s == nil {
		s = &analysis.Summary{}
	}
	header := []string{"Country", "Rows"}
	for _, c := range s.Columns {
		header = append(header, c+"_mean", c+"_median", c+"_std")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range s.Records {
		out := []string{rec.Country, strconv.Itoa(rec.Rows)}
		for _, c := range s.Columns {
			m := rec.Metrics[c]
			out = append(out, num(m.Mean), num(m.Median), num(m.Std))
		}
		if err := cw.Write(out); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Float renders NaN as an empty CSV cell.
type Float float64

func (f Float) MarshalCSV() (string, error) { return num(float64(f)), nil }

type rankingRow struct {
	Rank    int    `csv:"Rank"`
	Country string `csv:"Country"`
	Mean    Float  `csv:"Mean"`
	Count   int    `csv:"Count"`
}

// WriteRanking writes a top-k ranking, best first.
func WriteRanking(w io.Writer, recs []analysis.RankingRecord) error {
	rows := make([]rankingRow, 0, len(recs))
	for i, r := range recs {
		rows = append(rows, rankingRow{Rank: i + 1, Country: r.Country, Mean: Float(r.Mean), Count: r.Count})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("marshal ranking: %w", err)
	}
	return nil
}

type boxRow struct {
	Country      string `csv:"Country"`
	Count        int    `csv:"Count"`
	Min          Float  `csv:"Min"`
	Q1           Float  `csv:"Q1"`
	Median       Float  `csv:"Median"`
	Q3           Float  `csv:"Q3"`
	Max          Float  `csv:"Max"`
	LowerWhisker Float  `csv:"LowerWhisker"`
	UpperWhisker Float  `csv:"UpperWhisker"`
	Fliers       int    `csv:"Fliers"`
	Outliers     int    `csv:"Outliers"`
}

// WriteDistribution writes box-plot statistics, one record per country.
func WriteDistribution(w io.Writer, stats []analysis.BoxStats) error {
	rows := make([]boxRow, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, boxRow{
			Country: s.Country, Count: s.Count,
			Min: Float(s.Min), Q1: Float(s.Q1), Median: Float(s.Median), Q3: Float(s.Q3), Max: Float(s.Max),
			LowerWhisker: Float(s.LowerWhisker), UpperWhisker: Float(s.UpperWhisker),
			Fliers: s.Fliers, Outliers: s.Outliers,
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("marshal distribution: %w", err)
	}
	return nil
}

// WriteFile atomically writes path with fn's output, gzip-compressed when
// path ends in ".gz".
func WriteFile(path string, fn func(w io.Writer) error) error {
	return utils.SafeWriteStream(path, func(w io.Writer) error {
		if !strings.HasSuffix(strings.ToLower(path), ".gz") {
			return fn(w)
		}
		zw := gzip.NewWriter(w)
		if err := fn(zw); err != nil {
			_ = zw.Close()
			return err
		}
		return zw.Close()
	})
}

func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
