package eda

import (
	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// PlotGrid is an n x n matrix of plots over the numeric columns: histograms
// on the diagonal and scatter plots elsewhere. Cells[i][j] plots column j on
// the x axis against column i on the y axis.
type PlotGrid struct {
	Columns []string     `json:"columns"`
	Cells   [][]PlotCell `json:"cells"`
}

// PlotCell holds either a histogram (diagonal) or a scatter plot.
type PlotCell struct {
	X         string              `json:"x"`
	Y         string              `json:"y"`
	Histogram *analysis.Histogram `json:"histogram,omitempty"`
	Scatter   *Scatter            `json:"scatter,omitempty"`
}

// Scatter holds the rows where both columns are present.
type Scatter struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// pairBins is the histogram resolution of pairplot diagonals.
const pairBins = 10

func buildPlotGrid(t *dataset.Table) *PlotGrid {
	var cols []*dataset.Column
	for _, c := range t.Columns {
		if c.Kind.Numeric() {
			cols = append(cols, c)
		}
	}
	g := &PlotGrid{Columns: make([]string, len(cols)), Cells: make([][]PlotCell, len(cols))}
	for i, yc := range cols {
		g.Columns[i] = yc.Name
		g.Cells[i] = make([]PlotCell, len(cols))
		for j, xc := range cols {
			cell := PlotCell{X: xc.Name, Y: yc.Name}
			if i == j {
				h := analysis.NewHistogram(xc, pairBins)
				cell.Histogram = &h
			} else {
				cell.Scatter = pairedPoints(xc, yc)
			}
			g.Cells[i][j] = cell
		}
	}
	return g
}

// ScatterOf returns the paired points of two numeric columns.
func ScatterOf(t *dataset.Table, x, y string) (*Scatter, error) {
	xc, err := numericColumn(t, x)
	if err != nil {
		return nil, err
	}
	yc, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	return pairedPoints(xc, yc), nil
}

func pairedPoints(xc, yc *dataset.Column) *Scatter {
	s := &Scatter{}
	for r := range xc.Cells {
		if xc.Cells[r].Valid && yc.Cells[r].Valid {
			s.X = append(s.X, xc.Cells[r].Num)
			s.Y = append(s.Y, yc.Cells[r].Num)
		}
	}
	return s
}
