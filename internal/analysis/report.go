package analysis

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/solardash/internal/dataset"
)

// ReportOptions controls the full dashboard overview.
type ReportOptions struct {
	Summary    SummaryOptions
	RankColumn string
	TopK       int
	// Metric drives the distribution section.
	Metric     string
	SampleRows int
}

// DefaultReportOptions returns the dashboard defaults.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		Summary:    DefaultSummaryOptions(),
		RankColumn: DefaultRankColumn,
		TopK:       DefaultTopK,
		Metric:     dataset.ColGHI,
		SampleRows: 5,
	}
}

// CountryCount is the number of rows a country contributes.
type CountryCount struct {
	Country string
	Rows    int
}

// Report bundles every derived view of one (filtered) table.
type Report struct {
	Rows         int
	Columns      []string
	Countries    []CountryCount
	Summary      *Summary
	RankColumn   string
	Ranking      []RankingRecord
	Metric       string
	Distribution []BoxStats
	Samples      *dataset.Table
	Warnings     []string
}

// BuildReport computes summary, ranking and distribution of t.
func BuildReport(t *dataset.Table, opt ReportOptions) (*Report, error) {
	if opt.RankColumn == "" {
		opt.RankColumn = DefaultRankColumn
	}
	if opt.Metric == "" {
		opt.Metric = dataset.ColGHI
	}
	rep := &Report{Rows: t.Len(), RankColumn: opt.RankColumn, Metric: opt.Metric}
	if t != nil {
		rep.Columns = append([]string(nil), t.Columns...)
	}
	counts := map[string]int{}
	for _, r := range rowsOf(t) {
		counts[r.Country]++
	}
	for _, c := range t.Countries() {
		rep.Countries = append(rep.Countries, CountryCount{Country: c, Rows: counts[c]})
	}

	var err error
	if rep.Summary, err = Summarize(t, opt.Summary); err != nil {
		return nil, err
	}
	if rep.Ranking, err = TopK(t, opt.RankColumn, opt.TopK); err != nil {
		return nil, err
	}
	if rep.Distribution, err = Distribution(t, opt.Metric); err != nil {
		return nil, err
	}
	if opt.SampleRows > 0 {
		rep.Samples = t.Head(opt.SampleRows)
	}
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "no rows selected; pick at least one country")
	}
	for _, b := range rep.Distribution {
		if b.Count == 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s has no %s values", b.Country, opt.Metric))
		}
	}
	return rep, nil
}

func rowsOf(t *dataset.Table) []dataset.Row {
	if t == nil {
		return nil
	}
	return t.Rows
}

// Markdown renders the report in the [SECTION] layout used across the CLI.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Columns)))
	if len(r.Countries) > 0 {
		b.WriteString("Countries: ")
		for i, c := range r.Countries {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(fmt.Sprintf("%s (%d)", safeVal(c.Country), c.Rows))
		}
		b.WriteString("\n")
	}
	if r.Summary.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(r.Summary.Markdown())
	}
	if len(r.Ranking) > 0 {
		b.WriteString("\n")
		b.WriteString(RankingMarkdown(r.RankColumn, r.Ranking))
	}
	if len(r.Distribution) > 0 {
		b.WriteString("\n")
		b.WriteString(DistributionMarkdown(r.Metric, r.Distribution))
	}
	if r.Samples.Len() > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString(TableMarkdown(r.Samples))
	}
	if len(r.Ranking) > 0 && !math.IsNaN(r.Ranking[0].Mean) {
		best := r.Ranking[0]
		b.WriteString("\n[RECOMMENDATION]\n")
		b.WriteString(fmt.Sprintf("Highest average %s: %s (%s). Prefer open, unshaded sites there.\n",
			r.RankColumn, safeVal(best.Country), fmtNum(best.Mean)))
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders the summary as a table, one row per country.
func (s *Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[SUMMARY STATISTICS]\n")
	b.WriteString("| Country")
	for _, c := range s.Columns {
		b.WriteString(fmt.Sprintf(" | %s mean | %s median | %s std", c, c, c))
	}
	b.WriteString(" |\n|---")
	for range s.Columns {
		b.WriteString("|---:|---:|---:")
	}
	b.WriteString("|\n")
	for _, rec := range s.Records {
		b.WriteString("| ")
		b.WriteString(safeVal(rec.Country))
		for _, c := range s.Columns {
			m := rec.Metrics[c]
			b.WriteString(fmt.Sprintf(" | %s | %s | %s", fmtNum(m.Mean), fmtNum(m.Median), fmtNum(m.Std)))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

// RankingMarkdown renders a top-k ranking.
func RankingMarkdown(column string, recs []RankingRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[TOP %d COUNTRIES BY AVERAGE %s]\n", len(recs), column))
	b.WriteString(fmt.Sprintf("| # | Country | %s |\n|---:|---|---:|\n", column))
	for i, r := range recs {
		b.WriteString(fmt.Sprintf("| %d | %s | %s |\n", i+1, safeVal(r.Country), fmtNum(r.Mean)))
	}
	return b.String()
}

// DistributionMarkdown renders box-plot statistics.
func DistributionMarkdown(column string, stats []BoxStats) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s DISTRIBUTION]\n", column))
	for _, s := range stats {
		b.WriteString(fmt.Sprintf("- %s (n=%d): min %s, q1 %s, median %s, q3 %s, max %s; whiskers %s..%s",
			safeVal(s.Country), s.Count, fmtNum(s.Min), fmtNum(s.Q1), fmtNum(s.Median), fmtNum(s.Q3), fmtNum(s.Max),
			fmtNum(s.LowerWhisker), fmtNum(s.UpperWhisker)))
		if s.Fliers > 0 {
			b.WriteString(fmt.Sprintf("; %d beyond whiskers", s.Fliers))
		}
		if s.Outliers > 0 {
			b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", s.Outliers, s.OutlierThreshold, s.OutliersMaxAbsZ))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// TableMarkdown renders every row of t as a markdown table.
func TableMarkdown(t *dataset.Table) string {
	var b strings.Builder
	b.WriteString("| ")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeName(c))
	}
	b.WriteString(" |\n| ")
	for i := range t.Columns {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range t.Rows {
		b.WriteString("| ")
		for i, c := range t.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := row.Cell(c)
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}

func fmtNum(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}
