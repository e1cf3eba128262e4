package analysis

import (
	"encoding/json"
	"math"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Undefined coefficients (fewer than two paired observations or zero variance)
// are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// MarshalJSON writes undefined coefficients as null.
func (m CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]any, len(m.Values))
	for i, row := range m.Values {
		vals[i] = make([]any, len(row))
		for j, v := range row {
			vals[i][j] = jsonFloat(v)
		}
	}
	return json.Marshal(struct {
		Columns []string `json:"columns"`
		Values  [][]any  `json:"values"`
	}{m.Columns, vals})
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// pairAcc accumulates centered co-moments over rows where both cells are
// present, updated one pair at a time.
type pairAcc struct {
	n     float64
	meanX float64
	meanY float64
	m2X   float64
	m2Y   float64
	cXY   float64
}

func (pa *pairAcc) add(x, y float64) {
	pa.n++
	dx := x - pa.meanX
	pa.meanX += dx / pa.n
	dy := y - pa.meanY
	pa.meanY += dy / pa.n
	pa.m2X += dx * (x - pa.meanX)
	pa.m2Y += dy * (y - pa.meanY)
	pa.cXY += dx * (y - pa.meanY)
}

func (pa *pairAcc) r() float64 {
	if pa.n < 2 || pa.m2X == 0 || pa.m2Y == 0 {
		return math.NaN()
	}
	r := pa.cXY / math.Sqrt(pa.m2X*pa.m2Y)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// Correlation computes pairwise Pearson coefficients over the numeric columns
// of t. Missing cells are excluded per pair, not per row.
func Correlation(t *dataset.Table) *CorrMatrix {
	var cols []*dataset.Column
	for _, c := range t.Columns {
		if c.Kind.Numeric() {
			cols = append(cols, c)
		}
	}
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		for b := 0; b <= a; b++ {
			var pa pairAcc
			xs, ys := cols[a].Cells, cols[b].Cells
			for row := range xs {
				if xs[row].Valid && ys[row].Valid {
					pa.add(xs[row].Num, ys[row].Num)
				}
			}
			r := pa.r()
			if a == b && !math.IsNaN(r) {
				r = 1
			}
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

// TopPairs lists off-diagonal pairs ordered by |r|, skipping undefined ones.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var pairs []PairCorr
	n := len(m.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if r := m.Values[i][j]; !math.IsNaN(r) {
				pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
			}
		}
	}
	sortPairs(pairs)
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}
