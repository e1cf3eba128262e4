package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/eda"
)

// Text writes a result for a terminal: tables for tabular kinds, the report
// for markdown, and a text bar chart for histograms.
func Text(w io.Writer, res *eda.Result) error {
	d := res.Display
	switch d.Kind {
	case eda.KindTable:
		if d.Table.NumCols() == 0 {
			_, _ = fmt.Fprintln(w, "(no numeric columns)")
			return nil
		}
		Table(w, d.Table)
	case eda.KindMarkdown:
		_, _ = fmt.Fprintln(w, strings.TrimRight(d.Markdown, "\n"))
	case eda.KindSeries:
		header := "value"
		switch res.Op {
		case eda.DataTypes:
			header = "type"
		case eda.MissingValues:
			header = "missing"
		}
		Series(w, header, d.Series)
	case eda.KindMatrix:
		Matrix(w, d.Matrix)
	case eda.KindHistogram:
		Histogram(w, *d.Histogram)
	case eda.KindPlotGrid:
		PlotGrid(w, d.Grid)
	default:
		return fmt.Errorf("unknown display kind %q", d.Kind)
	}
	return nil
}

// Table renders rows with a light box style; missing cells print as NaN like
// a dataframe would.
func Table(w io.Writer, t *dataset.Table) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	headerRow := make(table.Row, t.NumCols()+1)
	headerRow[0] = ""
	for i, name := range t.ColumnNames() {
		headerRow[i+1] = name
	}
	tw.AppendHeader(headerRow)

	for i := 0; i < t.NumRows(); i++ {
		row := make(table.Row, t.NumCols()+1)
		row[0] = i
		for j, c := range t.Columns {
			row[j+1] = formatCell(c.Cells[i], c.Kind)
		}
		tw.AppendRow(row)
	}
	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d rows x %d columns)\n", t.NumRows(), t.NumCols())
}

func formatCell(c dataset.Cell, kind dataset.Kind) string {
	if !c.Valid {
		return "NaN"
	}
	if kind == dataset.KindFloat {
		return formatFloat(c.Num)
	}
	return c.Str
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("%.6g", v)
}

// Series renders name/value pairs.
func Series(w io.Writer, header string, entries []eda.SeriesEntry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"column", header})
	for _, e := range entries {
		tw.AppendRow(table.Row{e.Name, e.Value})
	}
	tw.Render()
}

// Matrix renders a correlation matrix with blanks for undefined coefficients.
func Matrix(w io.Writer, m *analysis.CorrMatrix) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	headerRow := make(table.Row, len(m.Columns)+1)
	headerRow[0] = ""
	for i, name := range m.Columns {
		headerRow[i+1] = name
	}
	tw.AppendHeader(headerRow)
	for i, name := range m.Columns {
		row := make(table.Row, len(m.Columns)+1)
		row[0] = name
		for j, v := range m.Values[i] {
			if math.IsNaN(v) {
				row[j+1] = ""
			} else {
				row[j+1] = fmt.Sprintf("%.3f", v)
			}
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

// Histogram prints one bar per bin scaled to 40 characters.
func Histogram(w io.Writer, h analysis.Histogram) {
	maxCount := 0
	for _, c := range h.Counts {
		if c > maxCount {
			maxCount = c
		}
	}
	_, _ = fmt.Fprintf(w, "Distribution of %s (%d values, %d bins)\n", h.Column, h.Total(), len(h.Counts))
	for i, c := range h.Counts {
		bar := 0
		if maxCount > 0 {
			bar = int(math.Round(float64(c) * 40 / float64(maxCount)))
		}
		_, _ = fmt.Fprintf(w, "[%12.4g, %12.4g) %-40s %d\n", h.Edges[i], h.Edges[i+1], strings.Repeat("#", bar), c)
	}
}

// PlotGrid summarises a pairplot as the point count of each pair; the
// picture itself comes from PairplotPNG.
func PlotGrid(w io.Writer, g *eda.PlotGrid) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	headerRow := make(table.Row, len(g.Columns)+1)
	headerRow[0] = "y \\ x"
	for i, name := range g.Columns {
		headerRow[i+1] = name
	}
	tw.AppendHeader(headerRow)
	for i, row := range g.Cells {
		out := make(table.Row, len(row)+1)
		out[0] = g.Columns[i]
		for j, cell := range row {
			if cell.Histogram != nil {
				out[j+1] = fmt.Sprintf("hist n=%d", cell.Histogram.Total())
			} else {
				out[j+1] = fmt.Sprintf("%d points", len(cell.Scatter.X))
			}
		}
		tw.AppendRow(out)
	}
	tw.Render()
	_, _ = fmt.Fprintln(w, "(use --chart to write the pairplot image)")
}
