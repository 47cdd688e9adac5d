package analysis

import (
	"sort"

	"github.com/KaramelBytes/solardash/internal/dataset"
)

// SummaryOptions controls the per-country descriptive statistics.
type SummaryOptions struct {
	// Columns to summarize; empty means GHI, DNI and DHI.
	Columns []string
	// Decimals to round to; negative disables rounding.
	Decimals int
	Rounding Rounding
}

// DefaultSummaryOptions returns the dashboard defaults: the three irradiance
// columns rounded half-even to 2 places.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{
		Columns:  append([]string(nil), dataset.MeasurementColumns...),
		Decimals: 2,
		Rounding: RoundHalfEven,
	}
}

// Stats are the descriptive statistics of one column within one country.
type Stats struct {
	Count  int
	Mean   float64
	Median float64
	Std    float64
}

// SummaryRecord holds the statistics of every summarized column for one country.
type SummaryRecord struct {
	Country string
	Rows    int
	Metrics map[string]Stats // by column name
}

// Summary is the per-country statistics table, ordered by country label.
type Summary struct {
	Columns []string
	Records []SummaryRecord
}

// Len returns the number of countries summarized.
func (s *Summary) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Get returns the record of country.
func (s *Summary) Get(country string) (SummaryRecord, bool) {
	if s == nil {
		return SummaryRecord{}, false
	}
	i := sort.Search(len(s.Records), func(i int) bool { return s.Records[i].Country >= country })
	if i < len(s.Records) && s.Records[i].Country == country {
		return s.Records[i], true
	}
	return SummaryRecord{}, false
}

// Summarize computes mean, median and sample standard deviation of each
// requested column per country. A country with a single value has a NaN
// standard deviation.
func Summarize(t *dataset.Table, opt SummaryOptions) (*Summary, error) {
	cols := opt.Columns
	if len(cols) == 0 {
		cols = dataset.MeasurementColumns
	}
	if t != nil {
		if err := dataset.RequireColumns(t, cols...); err != nil {
			return nil, err
		}
	}
	sum := &Summary{Columns: append([]string(nil), cols...)}
	if t.Len() == 0 {
		return sum, nil
	}

	index := map[string]int{}
	for _, col := range cols {
		for _, g := range groupValues(t, col) {
			i, ok := index[g.country]
			if !ok {
				i = len(sum.Records)
				index[g.country] = i
				sum.Records = append(sum.Records, SummaryRecord{
					Country: g.country,
					Rows:    g.rows,
					Metrics: make(map[string]Stats, len(cols)),
				})
			}
			mean, std := meanStd(g.values)
			st := Stats{
				Count:  len(g.values),
				Mean:   opt.Rounding.Round(mean, opt.Decimals),
				Median: opt.Rounding.Round(quantile(sortedCopy(g.values), 0.5), opt.Decimals),
				Std:    opt.Rounding.Round(std, opt.Decimals),
			}
			sum.Records[i].Metrics[col] = st
		}
	}
	return sum, nil
}
