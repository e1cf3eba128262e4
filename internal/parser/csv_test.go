package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDelimited(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		delim   rune
		header  []string
		rows    int
		wantErr string
	}{
		{name: "comma", in: "a,b\n1,2\n3,4\n", header: []string{"a", "b"}, rows: 2},
		{name: "bom stripped", in: "\xef\xbb\xbfa,b\n1,2\n", header: []string{"a", "b"}, rows: 1},
		{name: "tab sniffed", in: "a\tb\n1\t2\n", header: []string{"a", "b"}, rows: 1},
		{name: "explicit semicolon", in: "a;b\n1;2\n", delim: ';', header: []string{"a", "b"}, rows: 1},
		{name: "blank lines skipped", in: "a,b\n\n1,2\n\n", header: []string{"a", "b"}, rows: 1},
		{name: "quoted comma", in: "a,b\n\"x,y\",2\n", header: []string{"a", "b"}, rows: 1},
		{name: "too many fields", in: "a,b\n1,2,3\n", wantErr: "expected 2 fields in line 2, saw 3"},
		{name: "bad quote", in: "a,b\n\"x,2\n", wantErr: "read row 1"},
		{name: "invalid utf8", in: "a,b\n\xff\xfe,1\n", wantErr: "invalid UTF-8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := ParseDelimited([]byte(tt.in), tt.delim)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDelimited: %v", err)
			}
			if strings.Join(recs.Header, "|") != strings.Join(tt.header, "|") {
				t.Fatalf("header = %#v, want %#v", recs.Header, tt.header)
			}
			if len(recs.Rows) != tt.rows {
				t.Fatalf("rows = %d, want %d", len(recs.Rows), tt.rows)
			}
		})
	}
}

func TestParseDelimitedEmpty(t *testing.T) {
	_, err := ParseDelimited([]byte(""), 0)
	if !errors.Is(err, errNoColumns) {
		t.Fatalf("expected errNoColumns, got %v", err)
	}
}
