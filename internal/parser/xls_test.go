package parser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/edaloom/internal/parser/parsertest"
)

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	data, err := parsertest.BuildXLS(
		parsertest.XLSSheet{Name: "Summary", Rows: [][]string{{"k", "v"}, {"a", "1"}}},
		parsertest.XLSSheet{Name: "People", Rows: [][]string{
			{"name", "age", "score"},
			{"ann", "31", "0.5"},
			{"bob", "", "2.25"},
			nil,
			{"cy", "40", "-3"},
		}},
	)
	if err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	return data
}

func TestParseXLSFirstSheet(t *testing.T) {
	recs, err := Parse("book.xls", buildWorkbook(t), Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Join(recs.Header, ",") != "k,v" {
		t.Fatalf("header = %#v", recs.Header)
	}
	if len(recs.Rows) != 1 || strings.Join(recs.Rows[0], "|") != "a|1" {
		t.Fatalf("rows = %#v", recs.Rows)
	}
}

func TestParseXLSSheetByName(t *testing.T) {
	data := buildWorkbook(t)
	recs, err := Parse("book.xls", data, Options{Sheet: "people"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if strings.Join(recs.Header, ",") != "name,age,score" {
		t.Fatalf("header = %#v", recs.Header)
	}
	// The row without a record is skipped.
	want := []string{"ann|31|0.5", "bob||2.25", "cy|40|-3"}
	if len(recs.Rows) != len(want) {
		t.Fatalf("rows = %#v", recs.Rows)
	}
	for i, w := range want {
		if got := strings.Join(recs.Rows[i], "|"); got != w {
			t.Fatalf("row %d = %q, want %q", i, got, w)
		}
	}

	_, err = Parse("book.xls", data, Options{Sheet: "Missing"})
	if !errors.Is(err, ErrDecode) || !strings.Contains(err.Error(), "available sheets: Summary, People") {
		t.Fatalf("expected missing sheet error, got %v", err)
	}
}

func TestParseXLSCorrupt(t *testing.T) {
	_, err := Parse("broken.xls", []byte("definitely not a compound file, just some bytes"), Options{})
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	// Header and allocation table only: the directory is gone.
	data := buildWorkbook(t)
	if _, err := Parse("short.xls", data[:1024], Options{}); !errors.Is(err, ErrDecode) {
		t.Fatalf("truncated: expected ErrDecode, got %v", err)
	}
}

func TestParseXLSBadStringIndexIsDecodeError(t *testing.T) {
	data := buildWorkbook(t)
	// First LABELSST record; its string index follows row, column and format.
	at := bytes.Index(data, []byte{0xFD, 0x00, 0x0A, 0x00})
	if at < 0 {
		t.Fatal("no shared string cell in fixture")
	}
	binary.LittleEndian.PutUint32(data[at+4+6:], 0xFFFF)
	_, err := Parse("bad.xls", data, Options{})
	if !errors.Is(err, ErrDecode) || !strings.Contains(err.Error(), "corrupt workbook") {
		t.Fatalf("expected recovered decode error, got %v", err)
	}
}
