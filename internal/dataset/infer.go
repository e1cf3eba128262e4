package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/edaloom/internal/parser"
)

// missingMarkers are the field values read as a missing cell.
var missingMarkers = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"-nan": {},
	"null": {},
	"NULL": {},
	"None": {},
	"<NA>": {},
	"#N/A": {},
}

// IsMissing reports whether a raw field is a missing marker.
func IsMissing(raw string) bool {
	_, ok := missingMarkers[strings.TrimSpace(raw)]
	return ok
}

// FromRecords builds a typed table from decoded records, normalising header
// names and inferring one kind per column.
func FromRecords(name string, recs *parser.Records) *Table {
	names := uniqueNames(recs.Header)
	t := &Table{Name: name, Columns: make([]*Column, len(names))}
	raw := make([]string, len(recs.Rows))
	for j, colName := range names {
		for i, row := range recs.Rows {
			raw[i] = row[j]
		}
		t.Columns[j] = buildColumn(colName, raw)
	}
	return t
}

// uniqueNames fills blank headers and suffixes repeats with .1, .2, ...
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	repeats := make(map[string]int, len(header))
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			repeats[h]++
			name = fmt.Sprintf("%s.%d", h, repeats[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// InferKind decides the kind of a column from its raw fields.
func InferKind(raw []string) Kind {
	isInt, isFloat, isBool := true, true, true
	present := 0
	for _, v := range raw {
		if IsMissing(v) {
			continue
		}
		present++
		s := strings.TrimSpace(v)
		if isInt {
			if _, ok := parseInt(s); !ok {
				isInt = false
			}
		}
		if isFloat {
			if _, ok := parseFloat(s); !ok {
				isFloat = false
			}
		}
		if isBool {
			if _, ok := parseBool(s); !ok {
				isBool = false
			}
		}
		if !isInt && !isFloat && !isBool {
			return KindString
		}
	}
	switch {
	case present == 0:
		return KindEmpty
	case isInt:
		return KindInt
	case isFloat:
		return KindFloat
	case isBool:
		return KindBool
	default:
		return KindString
	}
}

func buildColumn(name string, raw []string) *Column {
	kind := InferKind(raw)
	cells := make([]Cell, len(raw))
	for i, v := range raw {
		if IsMissing(v) {
			continue
		}
		cells[i] = MakeCell(kind, v)
	}
	return &Column{Name: name, Kind: kind, Cells: cells}
}

// MakeCell converts a non-missing raw field into a cell of the given kind.
// The field must already be known to parse as that kind.
func MakeCell(kind Kind, raw string) Cell {
	s := strings.TrimSpace(raw)
	switch kind {
	case KindInt:
		n, _ := parseInt(s)
		return Cell{Valid: true, Int: n, Num: float64(n), Str: strconv.FormatInt(n, 10)}
	case KindFloat:
		f, _ := parseFloat(s)
		return Cell{Valid: true, Num: f, Str: FormatFloat(f)}
	case KindBool:
		b, _ := parseBool(s)
		return Cell{Valid: true, Bool: b, Str: FormatBool(b)}
	default:
		return Cell{Valid: true, Str: raw}
	}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func parseFloat(s string) (float64, bool) {
	// Plain decimal notation only: no hex floats, digit separators or infinities.
	if strings.ContainsAny(s, "xX_pP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// FormatFloat prints a float so that it always reads back as a float.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// FormatBool prints booleans the way spreadsheets and pandas do.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
