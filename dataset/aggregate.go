package dataset

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Aggregations understood by Aggregate.
const (
	AggSum     = "sum"
	AggMean    = "mean"
	AggMedian  = "median"
	AggMin     = "min"
	AggMax     = "max"
	AggCount   = "count"
	AggNUnique = "nunique"
	AggStd     = "std"
)

// Aggregations lists every supported aggregation name.
var Aggregations = []string{AggSum, AggMean, AggMedian, AggMin, AggMax, AggCount, AggNUnique, AggStd}

// Aggregate reduces values with the named aggregation. NaN values are skipped;
// an empty input yields 0 for sum and count and NaN otherwise.
func Aggregate(agg string, values []float64) (float64, error) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	switch agg {
	case AggSum:
		return floats.Sum(clean), nil
	case AggCount:
		return float64(len(clean)), nil
	case AggNUnique:
		seen := make(map[float64]struct{}, len(clean))
		for _, v := range clean {
			seen[v] = struct{}{}
		}
		return float64(len(seen)), nil
	}
	if len(clean) == 0 {
		if isAggregation(agg) {
			return math.NaN(), nil
		}
		return 0, fmt.Errorf("unknown aggregation %q", agg)
	}
	switch agg {
	case AggMean:
		return stat.Mean(clean, nil), nil
	case AggMedian:
		return Quantile(clean, 0.5), nil
	case AggMin:
		return floats.Min(clean), nil
	case AggMax:
		return floats.Max(clean), nil
	case AggStd:
		if len(clean) < 2 {
			return math.NaN(), nil
		}
		return stat.StdDev(clean, nil), nil
	default:
		return 0, fmt.Errorf("unknown aggregation %q", agg)
	}
}

func isAggregation(agg string) bool {
	for _, a := range Aggregations {
		if a == agg {
			return true
		}
	}
	return false
}

// Quantile returns the p-quantile of values using linear interpolation
// between closest ranks, position (n-1)*p. NaN values are ignored.
func Quantile(values []float64, p float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)
	pos := float64(len(sorted)-1) * p
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

// Group is one combination of key values and the rows that carry it.
type Group struct {
	Keys []string
	Rows []int
}

// GroupBy partitions the rows by the display values of the key columns.
// Groups are ordered by key, numerically for number columns.
func (f *Frame) GroupBy(keys ...string) ([]Group, error) {
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c, ok := f.Column(k)
		if !ok {
			return nil, fmt.Errorf("column %q does not exist", k)
		}
		cols[i] = c
	}

	index := make(map[string]int)
	var groups []Group
	var firstRow []int
	for r := 0; r < f.rows; r++ {
		vals := make([]string, len(cols))
		for i, c := range cols {
			vals[i] = c.Text(r)
		}
		id := fmt.Sprintf("%q", vals)
		gi, ok := index[id]
		if !ok {
			gi = len(groups)
			index[id] = gi
			groups = append(groups, Group{Keys: vals})
			firstRow = append(firstRow, r)
		}
		groups[gi].Rows = append(groups[gi].Rows, r)
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := firstRow[order[a]], firstRow[order[b]]
		for _, c := range cols {
			if cmp := c.Compare(ra, rb); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
	out := make([]Group, len(groups))
	for i, gi := range order {
		out[i] = groups[gi]
	}
	return out, nil
}

// Compare orders rows i and j of the column; missing values sort last.
func (c *Column) Compare(i, j int) int {
	mi, mj := c.Missing(i), c.Missing(j)
	switch {
	case mi && mj:
		return 0
	case mi:
		return 1
	case mj:
		return -1
	}
	switch c.kind {
	case KindNumber:
		return cmpFloat(c.nums[i], c.nums[j])
	case KindTime:
		return c.times[i].Compare(c.times[j])
	default:
		switch {
		case c.strs[i] < c.strs[j]:
			return -1
		case c.strs[i] > c.strs[j]:
			return 1
		}
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Values gathers the numeric values of column name at the given rows.
func (f *Frame) Values(name string, rows []int) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %q does not exist", name)
	}
	if c.kind != KindNumber {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = c.nums[r]
	}
	return out, nil
}

// AllRows returns the indices 0..Len-1.
func (f *Frame) AllRows() []int {
	rows := make([]int, f.rows)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
