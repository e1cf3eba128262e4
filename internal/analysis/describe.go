// Package analysis computes descriptive statistics over loaded tables.
package analysis

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// ColumnStats is the describe() row for one numeric column.
type ColumnStats struct {
	Name  string
	Count int
	Mean  float64
	Std   float64 // sample standard deviation (n-1)
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// Description holds per-column statistics for every numeric column, in table order.
type Description struct {
	Columns []ColumnStats `json:"columns"`
}

// StatNames are the row labels of a description, in display order.
var StatNames = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Values returns the statistics in StatNames order.
func (s ColumnStats) Values() []float64 {
	return []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
}

// MarshalJSON writes undefined statistics as null.
func (s ColumnStats) MarshalJSON() ([]byte, error) {
	out := map[string]any{"column": s.Name}
	for i, v := range s.Values() {
		out[StatNames[i]] = jsonFloat(v)
	}
	return json.Marshal(out)
}

// Describe computes count, mean, std, min, quartiles and max for each numeric
// column. A table without numeric columns yields an empty description.
func Describe(t *dataset.Table) *Description {
	d := &Description{}
	for _, c := range t.Columns {
		if !c.Kind.Numeric() {
			continue
		}
		d.Columns = append(d.Columns, describeColumn(c))
	}
	return d
}

func describeColumn(c *dataset.Column) ColumnStats {
	vals := c.Floats()
	s := ColumnStats{Name: c.Name, Count: len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}
	var w welford
	for _, v := range vals {
		w.add(v)
	}
	s.Mean, s.Std, s.Min, s.Max = w.mean, w.std(), w.min, w.max
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// welford is a streaming mean/variance accumulator.
type welford struct {
	n        int
	mean, m2 float64
	min, max float64
}

func (w *welford) add(x float64) {
	w.n++
	if w.n == 1 || x < w.min {
		w.min = x
	}
	if w.n == 1 || x > w.max {
		w.max = x
	}
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) std() float64 {
	if w.n < 2 {
		return math.NaN()
	}
	return math.Sqrt(w.m2 / float64(w.n-1))
}

// quantile interpolates linearly between the closest ranks of sorted.
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

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func jsonFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
