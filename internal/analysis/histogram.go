package analysis

import (
	"math"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// DefaultBins is the bin count used for distribution plots.
const DefaultBins = 30

// Histogram is an equal-width binning of one column. Edges has len(Counts)+1
// entries; bin i covers [Edges[i], Edges[i+1]) and the last bin is closed.
type Histogram struct {
	Column string    `json:"column"`
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

// NewHistogram bins the non-missing values of c into the given number of
// equal-width bins spanning the observed min and max.
func NewHistogram(c *dataset.Column, bins int) Histogram {
	return binValues(c.Name, c.Floats(), bins)
}

func binValues(name string, vals []float64, bins int) Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	lo, hi := 0.0, 1.0
	if len(vals) > 0 {
		lo, hi = math.Inf(1), math.Inf(-1)
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if lo == hi {
			lo, hi = lo-0.5, hi+0.5
		}
	}
	width := (hi - lo) / float64(bins)
	h := Histogram{Column: name, Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi
	for _, v := range vals {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		if i < 0 {
			i = 0
		}
		h.Counts[i]++
	}
	return h
}

// Total returns the number of binned values.
func (h Histogram) Total() int {
	n := 0
	for _, c := range h.Counts {
		n += c
	}
	return n
}
