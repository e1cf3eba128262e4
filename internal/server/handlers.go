package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/eda"
	"github.com/KaramelBytes/edaloom/internal/parser"
	"github.com/KaramelBytes/edaloom/internal/query"
	"github.com/KaramelBytes/edaloom/internal/render"
)

// LoadResponse describes a freshly loaded table.
type LoadResponse struct {
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Kinds   []string `json:"kinds"`
	Numeric []string `json:"numeric"`
}

// OpInfo is one entry of the operation menu.
type OpInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// sessionID returns the caller's session id, issuing a cookie on first use.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	sess, err := s.cookies.Get(r, sessionName)
	if err != nil {
		s.logger.Debug("session cookie rejected", "error", err)
	}
	if id, ok := sess.Values["id"].(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	sess.Values["id"] = id
	if err := sess.Save(r, w); err != nil {
		s.logger.Error("save session", "error", err)
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeOpError maps domain errors onto HTTP responses. Insufficient data is
// a warning, not a failure.
func (s *Server) writeOpError(w http.ResponseWriter, op eda.Operation, err error) {
	switch {
	case errors.Is(err, eda.ErrInsufficientData):
		writeJSON(w, http.StatusOK, map[string]string{"operation": op.String(), "warning": err.Error()})
	case errors.Is(err, query.ErrInvalidQuery), errors.Is(err, eda.ErrColumn):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("operation failed", "operation", op.String(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) loaded(w http.ResponseWriter, r *http.Request) (State, bool) {
	st, ok := s.store.Snapshot(s.sessionID(w, r))
	if !ok {
		writeError(w, http.StatusConflict, "no dataset loaded; upload a file or load the sample first")
	}
	return st, ok
}

func (s *Server) loadInto(w http.ResponseWriter, id string, t *dataset.Table) {
	s.store.Load(id, t)
	s.logger.Info("dataset loaded", "session", id, "name", t.Name, "rows", t.NumRows(), "cols", t.NumCols())
	resp := LoadResponse{Name: t.Name, Rows: t.NumRows(), Columns: t.ColumnNames(), Numeric: t.NumericColumns()}
	for _, c := range t.Columns {
		resp.Kinds = append(resp.Kinds, c.Kind.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadLen)
	if err := r.ParseMultipartForm(s.maxUploadLen); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.maxUploadLen>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload")
		return
	}

	t, err := dataset.Load(dataset.Upload{Filename: header.Filename, Data: data, Sheet: r.FormValue("sheet")})
	if err != nil {
		s.store.Discard(id)
		s.logger.Warn("upload rejected", "session", id, "file", header.Filename, "error", err)
		switch {
		case errors.Is(err, parser.ErrUnsupported):
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, parser.ErrDecode):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.loadInto(w, id, t)
}

func (s *Server) sample(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)
	t, err := dataset.Load(dataset.Sample{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.loadInto(w, id, t)
}

func (s *Server) downloadSample(w http.ResponseWriter, r *http.Request) {
	writeDownload(w, &eda.Download{Filename: dataset.SampleName, MIME: "text/csv", Data: dataset.SampleBytes()})
}

func (s *Server) listOps(w http.ResponseWriter, r *http.Request) {
	ops := eda.Operations()
	out := make([]OpInfo, len(ops))
	for i, op := range ops {
		out[i] = OpInfo{Name: op.String(), Title: op.Title(), Description: op.Description()}
	}
	writeJSON(w, http.StatusOK, out)
}

// params builds dispatch inputs from the query string and session state.
func (s *Server) params(r *http.Request, st State) (eda.Params, error) {
	p := eda.Params{
		PreviewRows: s.cfg.PreviewRows,
		Bins:        s.cfg.HistogramBins,
		Column:      r.URL.Query().Get("column"),
		Query:       r.URL.Query().Get("query"),
		Cleaning:    st.Cleaning,
	}
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("invalid rows: %q", v)
		}
		p.PreviewRows = n
	}
	if v := r.URL.Query().Get("bins"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, fmt.Errorf("invalid bins: %q", v)
		}
		p.Bins = n
	}
	return p, nil
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, op eda.Operation) (*eda.Result, bool) {
	st, ok := s.loaded(w, r)
	if !ok {
		return nil, false
	}
	p, err := s.params(r, st)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	res, err := eda.Dispatch(st.Table, op, p)
	if err != nil {
		s.writeOpError(w, op, err)
		return nil, false
	}
	return res, true
}

func (s *Server) runOp(w http.ResponseWriter, r *http.Request) {
	op, err := eda.ParseOperation(chi.URLParam(r, "op"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if res, ok := s.dispatch(w, r, op); ok {
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) addCleaning(w http.ResponseWriter, r *http.Request) {
	action, err := eda.ParseCleaningAction(chi.URLParam(r, "action"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := s.sessionID(w, r)
	if _, ok := s.store.AddCleaning(id, action); !ok {
		writeError(w, http.StatusConflict, "no dataset loaded; upload a file or load the sample first")
		return
	}
	if res, ok := s.dispatch(w, r, eda.DataCleaning); ok {
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) resetCleaning(w http.ResponseWriter, r *http.Request) {
	if !s.store.ResetCleaning(s.sessionID(w, r)) {
		writeError(w, http.StatusConflict, "no dataset loaded; upload a file or load the sample first")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeDownload(w http.ResponseWriter, d *eda.Download) {
	w.Header().Set("Content-Type", d.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", d.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

func (s *Server) downloadCleaned(w http.ResponseWriter, r *http.Request) {
	if res, ok := s.dispatch(w, r, eda.DataCleaning); ok {
		writeDownload(w, res.Download)
	}
}

func (s *Server) downloadFiltered(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("query") == "" {
		writeError(w, http.StatusBadRequest, eda.QueryPrompt)
		return
	}
	if res, ok := s.dispatch(w, r, eda.CustomQuery); ok {
		writeDownload(w, res.Download)
	}
}

func (s *Server) chart(w http.ResponseWriter, r *http.Request) {
	op, err := eda.ParseOperation(chi.URLParam(r, "op"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	res, ok := s.dispatch(w, r, op)
	if !ok {
		return
	}
	img, err := render.PNG(res)
	if err != nil {
		if errors.Is(err, render.ErrNoChart) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("render chart", "operation", op.String(), "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

// scatterChart plots two numeric columns against each other.
func (s *Server) scatterChart(w http.ResponseWriter, r *http.Request) {
	st, ok := s.loaded(w, r)
	if !ok {
		return
	}
	x, y := r.URL.Query().Get("x"), r.URL.Query().Get("y")
	if x == "" || y == "" {
		writeError(w, http.StatusBadRequest, "both x and y columns are required")
		return
	}
	pts, err := eda.ScatterOf(st.Table, x, y)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	img, err := render.ScatterPNG(pts, x, y, render.DefaultSize)
	if err != nil {
		s.logger.Error("render scatter", "x", x, "y", y, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}
