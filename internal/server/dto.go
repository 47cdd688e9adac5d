package server

import (
	"math"
	"time"

	"github.com/KaramelBytes/solardash/internal/analysis"
)

// JSON views of the analysis results. NaN values encode as null.

// CountryJSON is a country label with its row count.
type CountryJSON struct {
	Country string `json:"country"`
	Rows    int    `json:"rows"`
}

// StatsJSON is the statistics of one column within one country.
type StatsJSON struct {
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std"`
}

// SummaryJSON is one country of a summary.
type SummaryJSON struct {
	Country string               `json:"country"`
	Rows    int                  `json:"rows"`
	Metrics map[string]StatsJSON `json:"metrics"`
}

// RankingJSON is one entry of a top-k ranking.
type RankingJSON struct {
	Rank    int      `json:"rank"`
	Country string   `json:"country"`
	Mean    *float64 `json:"mean"`
	Count   int      `json:"count"`
}

// BoxJSON is the box-plot statistics of one country.
type BoxJSON struct {
	Country      string   `json:"country"`
	Count        int      `json:"count"`
	Min          *float64 `json:"min"`
	Q1           *float64 `json:"q1"`
	Median       *float64 `json:"median"`
	Q3           *float64 `json:"q3"`
	Max          *float64 `json:"max"`
	LowerWhisker *float64 `json:"lower_whisker"`
	UpperWhisker *float64 `json:"upper_whisker"`
	Fliers       int      `json:"fliers"`
	Outliers     int      `json:"outliers"`
}

// PointJSON is one sample of a time series.
type PointJSON struct {
	Time  time.Time `json:"time"`
	Value *float64  `json:"value"`
}

// NewSummaryJSON converts a summary, keeping its country order.
func NewSummaryJSON(sum *analysis.Summary) []SummaryJSON {
	out := make([]SummaryJSON, 0, sum.Len())
	if sum == nil {
		return out
	}
	for _, rec := range sum.Records {
		m := make(map[string]StatsJSON, len(rec.Metrics))
		for col, st := range rec.Metrics {
			m[col] = StatsJSON{Count: st.Count, Mean: num(st.Mean), Median: num(st.Median), Std: num(st.Std)}
		}
		out = append(out, SummaryJSON{Country: rec.Country, Rows: rec.Rows, Metrics: m})
	}
	return out
}

// NewRankingJSON converts a ranking, numbering it from 1.
func NewRankingJSON(recs []analysis.RankingRecord) []RankingJSON {
	out := make([]RankingJSON, 0, len(recs))
	for i, r := range recs {
		out = append(out, RankingJSON{Rank: i + 1, Country: r.Country, Mean: num(r.Mean), Count: r.Count})
	}
	return out
}

// NewBoxJSON converts box-plot statistics.
func NewBoxJSON(stats []analysis.BoxStats) []BoxJSON {
	out := make([]BoxJSON, 0, len(stats))
	for _, b := range stats {
		out = append(out, BoxJSON{
			Country: b.Country, Count: b.Count,
			Min: num(b.Min), Q1: num(b.Q1), Median: num(b.Median), Q3: num(b.Q3), Max: num(b.Max),
			LowerWhisker: num(b.LowerWhisker), UpperWhisker: num(b.UpperWhisker),
			Fliers: b.Fliers, Outliers: b.Outliers,
		})
	}
	return out
}

// NewPointJSON converts a time series.
func NewPointJSON(points []analysis.Point) []PointJSON {
	out := make([]PointJSON, 0, len(points))
	for _, p := range points {
		out = append(out, PointJSON{Time: p.Time, Value: num(p.Value)})
	}
	return out
}

// num maps NaN and infinities to null.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
