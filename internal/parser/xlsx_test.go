package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/KaramelBytes/edaloom/internal/parser/parsertest"
)

func TestParseXLSXFirstSheet(t *testing.T) {
	data, err := parsertest.BuildXLSX("Data", [][]string{
		{"name", "age", "score"},
		{"ann", "31", "0.1"},
		{"bob", "", "2.5"},
		{"ann & co", "28", ""},
	})
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	recs, err := Parse("people.xlsx", data, Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Join(recs.Header, ",") != "name,age,score" {
		t.Fatalf("header = %#v", recs.Header)
	}
	if len(recs.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(recs.Rows))
	}
	want := [][]string{
		{"ann", "31", "0.1"},
		{"bob", "", "2.5"},
		{"ann & co", "28", ""},
	}
	for i := range want {
		if strings.Join(recs.Rows[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("row %d = %#v, want %#v", i, recs.Rows[i], want[i])
		}
	}
}

func TestParseXLSXSheetByName(t *testing.T) {
	data, err := parsertest.BuildXLSX("Data", [][]string{{"a"}, {"1"}})
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	if _, err := Parse("book.xlsx", data, Options{Sheet: "data"}); err != nil {
		t.Fatalf("sheet lookup is case-insensitive: %v", err)
	}
	_, err = Parse("book.xlsx", data, Options{Sheet: "Missing"})
	if err == nil || !strings.Contains(err.Error(), "available sheets: Data") {
		t.Fatalf("expected missing sheet error, got %v", err)
	}
}

func TestParseXLSXCorrupt(t *testing.T) {
	_, err := Parse("broken.xlsx", []byte("not a zip archive"), Options{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if !strings.Contains(err.Error(), "open xlsx") {
		t.Fatalf("expected cause in message, got %v", err)
	}
}

func TestNormalizeRelPath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		if got := normalizeRelPath(tt.input); got != tt.expected {
			t.Errorf("normalizeRelPath(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestColIndexFromRef(t *testing.T) {
	tests := map[string]int{
		"A1": 0, "C12": 2, "Z3": 25, "AA1": 26, "ab7": 27,
		"XFD1": maxColumns - 1, "XFE1": maxColumns, "ZZZZZZZZZZZZZ2": maxColumns,
	}
	for ref, want := range tests {
		if got := colIndexFromRef(ref); got != want {
			t.Errorf("colIndexFromRef(%q) = %d, want %d", ref, got, want)
		}
	}
}

// rewriteSheet returns a copy of the workbook with old replaced by repl in the
// first worksheet.
func rewriteSheet(t *testing.T, data []byte, old, repl string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if f.Name == "xl/worksheets/sheet1.xml" {
			body = bytes.Replace(body, []byte(old), []byte(repl), 1)
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatalf("create %s: %v", f.Name, err)
		}
		if _, err := w.Write(body); err != nil {
			t.Fatalf("write %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return buf.Bytes()
}

func TestParseXLSXRejectsOutOfRangeCells(t *testing.T) {
	data, err := parsertest.BuildXLSX("Data", [][]string{{"a", "b"}, {"1", "2"}})
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	for _, ref := range []string{"ZZZZZZZZZZZZZ2", "ZZZZZZ2", "XFE2"} {
		crafted := rewriteSheet(t, data, `r="B2"`, `r="`+ref+`"`)
		_, err := Parse("crafted.xlsx", crafted, Options{})
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("%s: expected ErrDecode, got %v", ref, err)
		}
		if !strings.Contains(err.Error(), "XFD") {
			t.Fatalf("%s: expected column limit in message, got %v", ref, err)
		}
	}

	// XFD is the last valid column; the row is read and then rejected for
	// being wider than the header.
	edge := rewriteSheet(t, data, `r="B2"`, `r="XFD2"`)
	_, err = Parse("edge.xlsx", edge, Options{})
	if err == nil || strings.Contains(err.Error(), "XFD") || !strings.Contains(err.Error(), "saw 16384") {
		t.Fatalf("XFD cell: unexpected error %v", err)
	}
}
