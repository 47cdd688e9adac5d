package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/solardash/internal/dataset"
)

const (
	// DefaultRankColumn is the column countries are ranked by.
	DefaultRankColumn = dataset.ColGHI
	// DefaultTopK is how many countries a ranking keeps.
	DefaultTopK = 5
)

// RankingRecord is one country's mean of the ranked column.
type RankingRecord struct {
	Country string
	Mean    float64
	Count   int
}

// TopK ranks countries by the mean of column, highest first, and keeps the
// first k. Countries are grouped in ascending label order and the sort is
// stable, so equal means keep that order; countries without values sort last.
func TopK(t *dataset.Table, column string, k int) ([]RankingRecord, error) {
	if column == "" {
		column = DefaultRankColumn
	}
	if t != nil {
		if err := dataset.RequireColumns(t, column); err != nil {
			return nil, err
		}
	}
	groups := groupValues(t, column)
	recs := make([]RankingRecord, 0, len(groups))
	for _, g := range groups {
		mean, _ := meanStd(g.values)
		recs = append(recs, RankingRecord{Country: g.country, Mean: mean, Count: len(g.values)})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].Mean, recs[j].Mean
		if math.IsNaN(a) {
			return false
		}
		if math.IsNaN(b) {
			return true
		}
		return a > b
	})
	if k < 0 {
		k = 0
	}
	if len(recs) > k {
		recs = recs[:k]
	}
	return recs, nil
}
