package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/edaloom/internal/parser/parsertest"
)

const people = "age,gender,income\n31,Male,52000\n22,Female,\n45,Male,61000\n28,Female,48000\n36,Male,57000\n36,Male,57000\n"

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func setup(t *testing.T, cfg Config) *client {
	t.Helper()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "test-secret-test-secret-32bytes!"
	}
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body io.Reader, contentType string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (c *client) get(path string) *http.Response { return c.do(http.MethodGet, path, nil, "") }

func (c *client) upload(filename string, data []byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(c.t, err)
	_, err = fw.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())
	return c.do(http.MethodPost, "/api/upload", &buf, mw.FormDataContentType())
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealthAndPage(t *testing.T) {
	c := setup(t, Config{})
	resp := c.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", readAll(t, resp))

	resp = c.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readAll(t, resp)
	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "No dataset loaded")
	assert.Contains(t, body, `data-op="correlation"`)
	assert.Contains(t, body, `data-chart="true"`)
}

func TestPageOffersNumericColumns(t *testing.T) {
	c := setup(t, Config{})
	require.Equal(t, http.StatusOK, c.upload("people.csv", []byte(people)).StatusCode)
	body := readAll(t, c.get("/"))
	assert.Contains(t, body, `<select id="column"><option value="age">age</option><option value="income">income</option></select>`)
	assert.NotContains(t, body, `<option value="gender">`)
	assert.Contains(t, body, `id="scatter-plot"`)

	require.Equal(t, http.StatusOK, c.upload("names.csv", []byte("name\nann\nbob\n")).StatusCode)
	body = readAll(t, c.get("/"))
	assert.Contains(t, body, "names: 2 rows, 1 columns")
	assert.NotContains(t, body, `id="column"`)
	assert.NotContains(t, body, `id="scatter-plot"`)
}

func TestSampleDownload(t *testing.T) {
	c := setup(t, Config{})
	resp := c.get("/api/sample/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="tips.csv"`, resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(readAll(t, resp), "total_bill,tip,"))
}

func TestScatterChart(t *testing.T) {
	c := setup(t, Config{})
	assert.Equal(t, http.StatusConflict, c.get("/api/charts/scatter.png?x=age&y=income").StatusCode)
	require.Equal(t, http.StatusOK, c.upload("people.csv", []byte(people)).StatusCode)

	resp := c.get("/api/charts/scatter.png?x=age&y=income")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(readAll(t, resp), "\x89PNG"))

	for _, q := range []string{"x=age", "x=age&y=gender", "x=height&y=age"} {
		resp := c.get("/api/charts/scatter.png?" + q)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestListOps(t *testing.T) {
	c := setup(t, Config{})
	resp := c.get("/api/ops")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ops []OpInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ops))
	require.Len(t, ops, 10)
	assert.Equal(t, "preview", ops[0].Name)
	assert.Equal(t, "Custom Query", ops[9].Title)
}

func TestOperationsRequireDataset(t *testing.T) {
	c := setup(t, Config{})
	for _, path := range []string{"/api/ops/summary", "/api/cleaning/download", "/api/charts/correlation.png"} {
		resp := c.get(path)
		assert.Equal(t, http.StatusConflict, resp.StatusCode, path)
	}
	resp := c.do(http.MethodPost, "/api/cleaning/drop_missing", nil, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUploadAndExplore(t *testing.T) {
	c := setup(t, Config{})
	resp := c.upload("people.csv", []byte(people))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loaded LoadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	assert.Equal(t, "people", loaded.Name)
	assert.Equal(t, 6, loaded.Rows)
	assert.Equal(t, []string{"int", "string", "int"}, loaded.Kinds)
	assert.Equal(t, []string{"age", "income"}, loaded.Numeric)

	out := decode(t, c.get("/api/ops/summary"))
	display := out["display"].(map[string]any)
	assert.Equal(t, "markdown", display["kind"])
	summary := display["summary"].(map[string]any)
	assert.EqualValues(t, 6, summary["rows"])
	assert.EqualValues(t, 1, summary["duplicate_rows"])

	out = decode(t, c.get("/api/ops/preview?rows=2"))
	table := out["display"].(map[string]any)["table"].(map[string]any)
	assert.Len(t, table["rows"], 2)

	out = decode(t, c.get("/api/ops/Data%20Types"))
	assert.Equal(t, "types", out["operation"])

	resp = c.get("/api/ops/explode")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.get("/")
	assert.Contains(t, readAll(t, resp), "people: 6 rows, 3 columns")
}

func TestUploadXLSX(t *testing.T) {
	c := setup(t, Config{})
	data, err := parsertest.BuildXLSX("Sheet1", [][]string{{"a", "b"}, {"1", "x"}, {"2", "y"}})
	require.NoError(t, err)
	resp := c.upload("book.xlsx", data)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loaded LoadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loaded))
	assert.Equal(t, 2, loaded.Rows)
}

func TestUploadErrors(t *testing.T) {
	c := setup(t, Config{})
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/sample", nil, "").StatusCode)

	resp := c.upload("notes.docx", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], ".docx")

	// A failed upload discards the previous table.
	resp = c.get("/api/ops/preview")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = c.upload("broken.xlsx", []byte("not a zip"))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/upload", strings.NewReader("x"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUploadSizeLimit(t *testing.T) {
	c := setup(t, Config{MaxUploadMB: 1})
	big := bytes.Repeat([]byte("1234567890\n"), 200000)
	resp := c.upload("big.csv", append([]byte("n\n"), big...))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, resp.StatusCode)
}

func TestInsufficientDataIsWarning(t *testing.T) {
	c := setup(t, Config{})
	require.Equal(t, http.StatusOK, c.upload("names.csv", []byte("name\nann\nbob\n")).StatusCode)
	resp := c.get("/api/ops/pairplot")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, resp)
	assert.Contains(t, out["warning"], "at least 2 numeric columns")

	out = decode(t, c.get("/api/ops/stats"))
	assert.Equal(t, "table", out["display"].(map[string]any)["kind"])

	require.Equal(t, http.StatusOK, c.upload("people.csv", []byte(people)).StatusCode)
	resp = c.get("/api/ops/distribution?column=gender")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], "not numeric")

	out = decode(t, c.get("/api/ops/distribution?bins=4"))
	hist := out["display"].(map[string]any)["histogram"].(map[string]any)
	assert.Len(t, hist["counts"], 4)
}

func TestCleaningFlow(t *testing.T) {
	c := setup(t, Config{})
	require.Equal(t, http.StatusOK, c.upload("people.csv", []byte(people)).StatusCode)

	resp := c.do(http.MethodPost, "/api/cleaning/drop_missing", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table := decode(t, resp)["display"].(map[string]any)["table"].(map[string]any)
	assert.Len(t, table["rows"], 5)

	resp = c.do(http.MethodPost, "/api/cleaning/drop_duplicates", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table = decode(t, resp)["display"].(map[string]any)["table"].(map[string]any)
	assert.Len(t, table["rows"], 4)

	resp = c.get("/api/cleaning/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cleaned_dataset.csv")
	assert.Equal(t, "age,gender,income\n31,Male,52000\n45,Male,61000\n28,Female,48000\n36,Male,57000\n", readAll(t, resp))

	resp = c.do(http.MethodDelete, "/api/cleaning", nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = c.get("/api/cleaning/download")
	assert.Equal(t, people, readAll(t, resp))

	resp = c.do(http.MethodPost, "/api/cleaning/shuffle", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuery(t *testing.T) {
	c := setup(t, Config{})
	require.Equal(t, http.StatusOK, c.upload("people.csv", []byte(people)).StatusCode)

	q := url.Values{"query": {"age > 30 and gender == 'Male'"}}.Encode()
	resp := c.get("/api/query/download?" + q)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "filtered_data.csv")
	assert.Equal(t, "age,gender,income\n31,Male,52000\n45,Male,61000\n36,Male,57000\n36,Male,57000\n", readAll(t, resp))

	resp = c.get("/api/ops/query?" + url.Values{"query": {"age >>"}}.Encode())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["error"], "invalid query")

	// The table is still usable after a bad query.
	assert.Equal(t, http.StatusOK, c.get("/api/ops/summary").StatusCode)

	out := decode(t, c.get("/api/ops/query"))
	assert.Nil(t, out["download"])

	resp = c.get("/api/query/download")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCharts(t *testing.T) {
	c := setup(t, Config{})
	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/sample", nil, "").StatusCode)
	for _, op := range []string{"correlation", "pairplot", "distribution"} {
		resp := c.get("/api/charts/" + op + ".png?column=tip")
		require.Equal(t, http.StatusOK, resp.StatusCode, op)
		assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		assert.True(t, strings.HasPrefix(readAll(t, resp), "\x89PNG"), op)
	}
	resp := c.get("/api/charts/preview.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := New(Config{SessionSecret: "another-secret", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	jarA, _ := cookiejar.New(nil)
	a := &client{t: t, base: ts.URL, http: &http.Client{Jar: jarA}}
	jarB, _ := cookiejar.New(nil)
	b := &client{t: t, base: ts.URL, http: &http.Client{Jar: jarB}}

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/sample", nil, "").StatusCode)
	assert.Equal(t, http.StatusOK, a.get("/api/ops/preview").StatusCode)
	assert.Equal(t, http.StatusConflict, b.get("/api/ops/preview").StatusCode)
	assert.Equal(t, 1, srv.store.Len())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv := New(Config{Port: 0, SessionSecret: "s", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
