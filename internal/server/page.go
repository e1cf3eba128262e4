package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/eda"
	"github.com/KaramelBytes/edaloom/internal/parser"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html"))

type pageData struct {
	Dataset  string
	Rows     int
	Cols     int
	Numeric  []string
	Cleaning []eda.CleaningAction
	Ops      []OpInfo
	Charts   map[string]bool
	Accept   string
}

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Charts: map[string]bool{
			eda.CorrelationHeatmap.String(): true,
			eda.Pairplot.String():           true,
			eda.DistributionPlot.String():   true,
		},
		Accept: strings.Join(parser.Supported(), ","),
	}
	for _, op := range eda.Operations() {
		data.Ops = append(data.Ops, OpInfo{Name: op.String(), Title: op.Title(), Description: op.Description()})
	}
	if st, ok := s.store.Snapshot(s.sessionID(w, r)); ok {
		data.Dataset = st.Table.Name
		data.Rows = st.Table.NumRows()
		data.Cols = st.Table.NumCols()
		data.Numeric = st.Table.NumericColumns()
		data.Cleaning = st.Cleaning
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("render page", "error", err)
		http.Error(w, "render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
