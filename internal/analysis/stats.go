package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/solardash/internal/dataset"
)

// Rounding selects how summary values are rounded.
type Rounding int

const (
	// RoundHalfEven rounds ties to the even neighbour (numpy's behaviour).
	RoundHalfEven Rounding = iota
	// RoundHalfAway rounds ties away from zero.
	RoundHalfAway
)

// ParseRounding accepts "half-even" or "half-away".
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "half-even", "even", "bankers":
		return RoundHalfEven, nil
	case "half-away", "away", "half-up":
		return RoundHalfAway, nil
	default:
		return RoundHalfEven, fmt.Errorf("unsupported rounding %q (use half-even|half-away)", s)
	}
}

func (r Rounding) String() string {
	if r == RoundHalfAway {
		return "half-away"
	}
	return "half-even"
}

// Round rounds v to decimals places. Negative decimals leave v untouched; NaN stays NaN.
func (r Rounding) Round(v float64, decimals int) float64 {
	if decimals < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow10(decimals)
	if r == RoundHalfAway {
		return math.Round(v*p) / p
	}
	return math.RoundToEven(v*p) / p
}

// group holds the valid (non-NaN) values of one country.
type group struct {
	country string
	rows    int
	values  []float64
}

// groupValues splits column values by country. Groups come back in ascending
// country order, which is the grouping order used by every aggregation here.
func groupValues(t *dataset.Table, column string) []*group {
	if t == nil {
		return nil
	}
	byCountry := map[string]*group{}
	for _, r := range t.Rows {
		g := byCountry[r.Country]
		if g == nil {
			g = &group{country: r.Country}
			byCountry[r.Country] = g
		}
		g.rows++
		if v := r.Value(column); !math.IsNaN(v) {
			g.values = append(g.values, v)
		}
	}
	out := make([]*group, 0, len(byCountry))
	for _, g := range byCountry {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].country < out[j].country })
	return out
}

// meanStd computes mean and sample standard deviation with Welford's update.
// Std is NaN below two values; both are NaN for an empty input.
func meanStd(vals []float64) (mean, std float64) {
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	var m2 float64
	for i, x := range vals {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	if len(vals) < 2 {
		return mean, math.NaN()
	}
	return mean, math.Sqrt(m2 / float64(len(vals)-1))
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := sortedCopy(vals)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		d := v - median
		if d < 0 {
			d = -d
		}
		dev[i] = d
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between order statistics of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
