package eda

import (
	"github.com/KaramelBytes/edaloom/internal/analysis"
	"github.com/KaramelBytes/edaloom/internal/dataset"
)

// Kind tells the rendering side how to present an artifact.
type Kind string

const (
	KindTable     Kind = "table"
	KindMarkdown  Kind = "markdown"
	KindSeries    Kind = "series"
	KindMatrix    Kind = "matrix"
	KindPlotGrid  Kind = "plot_grid"
	KindHistogram Kind = "histogram"
)

// Artifact is a display value plus its kind tag. Only the field matching
// Kind is set, except Summary and Stats which accompany their markdown and
// table views.
type Artifact struct {
	Kind      Kind                  `json:"kind"`
	Table     *dataset.Table        `json:"table,omitempty"`
	Markdown  string                `json:"markdown,omitempty"`
	Series    []SeriesEntry         `json:"series,omitempty"`
	Matrix    *analysis.CorrMatrix  `json:"matrix,omitempty"`
	Grid      *PlotGrid             `json:"grid,omitempty"`
	Histogram *analysis.Histogram   `json:"histogram,omitempty"`
	Summary   *analysis.Summary     `json:"summary,omitempty"`
	Stats     *analysis.Description `json:"stats,omitempty"`
}

// SeriesEntry is one labelled value of a per-column series.
type SeriesEntry struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Download is a byte payload offered to the user as a file.
type Download struct {
	Filename string `json:"filename"`
	MIME     string `json:"mime"`
	Data     []byte `json:"-"`
}

// Result is what one dispatch produces.
type Result struct {
	Op       Operation `json:"operation"`
	Display  Artifact  `json:"display"`
	Download *Download `json:"download,omitempty"`
}

const (
	CleanedFilename  = "cleaned_dataset.csv"
	FilteredFilename = "filtered_data.csv"
	csvMIME          = "text/csv"
)

func csvDownload(name string, t *dataset.Table) *Download {
	return &Download{Filename: name, MIME: csvMIME, Data: dataset.EncodeCSV(t)}
}
