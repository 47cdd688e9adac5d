package analysis

import (
	"math"
	"time"

	"github.com/KaramelBytes/solardash/internal/dataset"
)

// DefaultOutlierThreshold is the robust |z| above which a value counts as an outlier.
const DefaultOutlierThreshold = 3.5

// BoxStats are the box-plot statistics of one column within one country.
type BoxStats struct {
	Country      string
	Count        int
	Min          float64
	Q1           float64
	Median       float64
	Q3           float64
	Max          float64
	LowerWhisker float64
	UpperWhisker float64
	// values beyond the 1.5·IQR whiskers
	Fliers int
	// robust Z via MAD
	Outliers         int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
}

// Distribution computes box-plot statistics of column per country, in
// ascending country order.
func Distribution(t *dataset.Table, column string) ([]BoxStats, error) {
	if t != nil {
		if err := dataset.RequireColumns(t, column); err != nil {
			return nil, err
		}
	}
	groups := groupValues(t, column)
	out := make([]BoxStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, boxStats(g.country, g.values))
	}
	return out, nil
}

func boxStats(country string, vals []float64) BoxStats {
	b := BoxStats{Country: country, Count: len(vals), OutlierThreshold: DefaultOutlierThreshold}
	if len(vals) == 0 {
		nan := math.NaN()
		b.Min, b.Q1, b.Median, b.Q3, b.Max = nan, nan, nan, nan, nan
		b.LowerWhisker, b.UpperWhisker = nan, nan
		return b
	}
	s := sortedCopy(vals)
	b.Min, b.Max = s[0], s[len(s)-1]
	b.Q1, b.Median, b.Q3 = quantile(s, 0.25), quantile(s, 0.5), quantile(s, 0.75)
	iqr := b.Q3 - b.Q1
	lo, hi := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = b.Max, b.Min
	for _, v := range s {
		if v < lo || v > hi {
			b.Fliers++
			continue
		}
		if v < b.LowerWhisker {
			b.LowerWhisker = v
		}
		if v > b.UpperWhisker {
			b.UpperWhisker = v
		}
	}
	if len(vals) >= 8 {
		median, mad := medianMAD(vals)
		if mad > 0 {
			for _, v := range vals {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > b.OutlierThreshold {
					b.Outliers++
				}
				if az > b.OutliersMaxAbsZ {
					b.OutliersMaxAbsZ = az
				}
			}
		}
	}
	return b
}

// DefaultSeriesLimit caps how many records of a country a time series samples.
const DefaultSeriesLimit = 1000

// Point is one sample of a time series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series samples column over time for one country: the first limit rows of
// that country, skipping rows whose timestamp does not parse.
func Series(t *dataset.Table, country, column string, limit int) ([]Point, error) {
	if column == "" {
		column = dataset.ColGHI
	}
	if err := dataset.RequireColumns(t, dataset.ColTimestamp, column); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSeriesLimit
	}
	var out []Point
	taken := 0
	for _, r := range t.Rows {
		if r.Country != country {
			continue
		}
		if taken >= limit {
			break
		}
		taken++
		ts, ok := r.Time()
		if !ok {
			continue
		}
		out = append(out, Point{Time: ts, Value: r.Value(column)})
	}
	return out, nil
}
