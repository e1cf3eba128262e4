package parser_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/edaloom/internal/parser"
)

func TestParseUnsupportedExtension(t *testing.T) {
	_, err := parser.Parse("notes.txt", []byte("hello"), parser.Options{})
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	var ufe *parser.UnsupportedFormatError
	if !errors.As(err, &ufe) || ufe.Ext != ".txt" {
		t.Fatalf("expected extension .txt, got %#v", err)
	}
}

func TestParseFileCSV(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "Harvest.CSV")
	content := "date,plot,moisture\n2024-08-10,A1,74\n2024-08-12,A1\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	recs, err := parser.ParseFile(p, parser.Options{})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(recs.Header) != 3 || len(recs.Rows) != 2 {
		t.Fatalf("unexpected shape: %#v", recs)
	}
	if got := recs.Rows[1]; len(got) != 3 || got[2] != "" {
		t.Fatalf("short row not padded: %#v", got)
	}
}

func TestParseEmptyPayload(t *testing.T) {
	_, err := parser.Parse("empty.csv", nil, parser.Options{})
	if !errors.Is(err, parser.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}
