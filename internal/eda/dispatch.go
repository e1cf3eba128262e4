package eda

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/query"
)

// DefaultPreviewRows is how many rows Preview shows when not told otherwise.
const DefaultPreviewRows = 5

// QueryPrompt is shown when CustomQuery runs without an expression.
const QueryPrompt = "Enter a filter expression, e.g. age > 25 and gender == 'Male'"

// Params carries the inputs of the operations that take any.
type Params struct {
	// PreviewRows limits Preview; 0 means DefaultPreviewRows.
	PreviewRows int
	// Column selects the DistributionPlot column; empty means the first numeric one.
	Column string
	// Bins overrides the DistributionPlot bin count; 0 means analysis.DefaultBins.
	Bins int
	// Cleaning lists the DataCleaning actions applied so far, in order.
	Cleaning []CleaningAction
	// Query is the CustomQuery filter expression.
	Query string
	// Summary tunes the Summary report; the zero value means analysis.DefaultOptions.
	Summary *analysis.Options
}

// Dispatch runs op against t. The table is never modified; operations that
// transform data work on a private copy. Errors are *InsufficientDataError,
// *ColumnError or *query.InvalidQueryError.
func Dispatch(t *dataset.Table, op Operation, p Params) (*Result, error) {
	if t == nil {
		return nil, fmt.Errorf("%s: no table loaded", op)
	}
	res := &Result{Op: op}
	switch op {
	case Preview:
		n := p.PreviewRows
		if n <= 0 {
			n = DefaultPreviewRows
		}
		res.Display = Artifact{Kind: KindTable, Table: t.Head(n)}

	case Summary:
		opt := analysis.DefaultOptions()
		if p.Summary != nil {
			opt = *p.Summary
		}
		s := analysis.Summarize(t, opt)
		res.Display = Artifact{Kind: KindMarkdown, Markdown: s.Markdown(), Summary: s}

	case BasicStatistics:
		d := analysis.Describe(t)
		res.Display = Artifact{Kind: KindTable, Table: DescribeTable(d), Stats: d}

	case DataTypes:
		series := make([]SeriesEntry, len(t.Columns))
		for i, c := range t.Columns {
			series[i] = SeriesEntry{Name: c.Name, Value: c.Kind.String()}
		}
		res.Display = Artifact{Kind: KindSeries, Series: series}

	case MissingValues:
		series := make([]SeriesEntry, len(t.Columns))
		for i, c := range t.Columns {
			series[i] = SeriesEntry{Name: c.Name, Value: c.MissingCount()}
		}
		res.Display = Artifact{Kind: KindSeries, Series: series}

	case CorrelationHeatmap:
		if have := len(t.NumericColumns()); have < 1 {
			return nil, &InsufficientDataError{Op: op, Need: 1, Have: have}
		}
		res.Display = Artifact{Kind: KindMatrix, Matrix: analysis.Correlation(t)}

	case Pairplot:
		if have := len(t.NumericColumns()); have < 2 {
			return nil, &InsufficientDataError{Op: op, Need: 2, Have: have}
		}
		res.Display = Artifact{Kind: KindPlotGrid, Grid: buildPlotGrid(t)}

	case DistributionPlot:
		numeric := t.NumericColumns()
		if len(numeric) == 0 {
			return nil, &InsufficientDataError{Op: op, Need: 1, Have: 0}
		}
		name := p.Column
		if name == "" {
			name = numeric[0]
		}
		c, err := numericColumn(t, name)
		if err != nil {
			return nil, err
		}
		bins := p.Bins
		if bins <= 0 {
			bins = analysis.DefaultBins
		}
		h := analysis.NewHistogram(c, bins)
		res.Display = Artifact{Kind: KindHistogram, Histogram: &h}

	case DataCleaning:
		work, err := Clean(t, p.Cleaning)
		if err != nil {
			return nil, err
		}
		res.Display = Artifact{Kind: KindTable, Table: work}
		res.Download = csvDownload(CleanedFilename, work)

	case CustomQuery:
		if strings.TrimSpace(p.Query) == "" {
			res.Display = Artifact{Kind: KindMarkdown, Markdown: QueryPrompt}
			return res, nil
		}
		out, err := query.Run(p.Query, t)
		if err != nil {
			return nil, err
		}
		res.Display = Artifact{Kind: KindTable, Table: out}
		res.Download = csvDownload(FilteredFilename, out)

	default:
		return nil, fmt.Errorf("unknown operation %d", int(op))
	}
	return res, nil
}

func numericColumn(t *dataset.Table, name string) (*dataset.Column, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, &ColumnError{Column: name, Reason: "no such column"}
	}
	if !c.Kind.Numeric() {
		return nil, &ColumnError{Column: name, Reason: fmt.Sprintf("not numeric (%s)", c.Kind)}
	}
	return c, nil
}

// DescribeTable lays a description out as a table: a "statistic" label
// column followed by one float column per described column. An empty
// description gives an empty table.
func DescribeTable(d *analysis.Description) *dataset.Table {
	out := &dataset.Table{Name: "describe"}
	if len(d.Columns) == 0 {
		return out
	}
	labels := make([]dataset.Cell, len(analysis.StatNames))
	for i, name := range analysis.StatNames {
		labels[i] = dataset.MakeCell(dataset.KindString, name)
	}
	taken := make(map[string]bool, len(d.Columns))
	for _, s := range d.Columns {
		taken[s.Name] = true
	}
	label := "statistic"
	for taken[label] {
		label = "_" + label
	}
	out.Columns = append(out.Columns, &dataset.Column{Name: label, Kind: dataset.KindString, Cells: labels})
	for _, s := range d.Columns {
		vals := s.Values()
		cells := make([]dataset.Cell, len(vals))
		for i, v := range vals {
			if !math.IsNaN(v) {
				cells[i] = dataset.Cell{Valid: true, Num: v, Str: dataset.FormatFloat(v)}
			}
		}
		out.Columns = append(out.Columns, &dataset.Column{Name: s.Name, Kind: dataset.KindFloat, Cells: cells})
	}
	return out
}
