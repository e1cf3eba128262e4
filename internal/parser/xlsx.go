package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse reads the selected sheet (or the first one) of an OOXML workbook.
// The first row is the header.
func (xlsxParser) Parse(content []byte, opt Options) (recs *Records, err error) {
	defer func() {
		if r := recover(); r != nil {
			recs, err = nil, fmt.Errorf("open xlsx: corrupt workbook: %v", r)
		}
	}()
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	workbookXML, err := readZipFile(zr, "xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	if workbookXML == nil {
		return nil, errors.New("open xlsx: xl/workbook.xml not found")
	}
	relsXML, err := readZipFile(zr, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, err
	}
	sharedXML, err := readZipFile(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil, err
	}
	sheets := parseWorkbook(workbookXML)
	rels := parseRelationships(relsXML)

	target, err := resolveSheet(sheets, rels, opt.Sheet)
	if err != nil {
		return nil, err
	}
	sheetXML, err := readZipFile(zr, target)
	if err != nil {
		return nil, err
	}
	if sheetXML == nil {
		return nil, fmt.Errorf("worksheet %s not found in workbook", target)
	}
	rr := newSheetRowReader(sheetXML, parseSharedStrings(sharedXML))
	header, ok := rr.Next()
	if !ok {
		if rr.err != nil {
			return nil, fmt.Errorf("read sheet: %w", rr.err)
		}
		return nil, errNoColumns
	}
	var rows [][]string
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	if rr.err != nil {
		return nil, fmt.Errorf("read sheet: %w", rr.err)
	}
	// Trailing empty header cells come from formatted but unused columns.
	for len(header) > 0 && strings.TrimSpace(header[len(header)-1]) == "" && !columnUsed(rows, len(header)-1) {
		header = header[:len(header)-1]
	}
	for i, row := range rows {
		if len(row) > len(header) && blankFrom(row, len(header)) {
			rows[i] = row[:len(header)]
		}
	}
	return normalize(header, rows)
}

func resolveSheet(sheets []wbSheet, rels map[string]string, name string) (string, error) {
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := rels[s.RID]; ok {
					return normalizeRelPath(rel), nil
				}
			}
		}
		available := make([]string, len(sheets))
		for i, s := range sheets {
			available[i] = s.Name
		}
		return "", fmt.Errorf("sheet '%s' not found; available sheets: %s", name, strings.Join(available, ", "))
	}
	if len(sheets) > 0 {
		if rel, ok := rels[sheets[0].RID]; ok {
			return normalizeRelPath(rel), nil
		}
	}
	return "xl/worksheets/sheet1.xml", nil
}

func columnUsed(rows [][]string, idx int) bool {
	for _, row := range rows {
		if idx < len(row) && strings.TrimSpace(row[idx]) != "" {
			return true
		}
	}
	return false
}

func blankFrom(row []string, idx int) bool {
	for _, v := range row[idx:] {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

// parseWorkbook extracts sheet entries in workbook order.
func parseWorkbook(data []byte) []wbSheet {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID, _ = strconv.Atoi(a.Value)
			case "id":
				s.RID = a.Value // r: namespace
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

// readZipFile returns nil, nil when the entry does not exist.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, nil
}

func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	var inT, inPhonetic bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			case "rPh":
				inPhonetic = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "rPh":
				inPhonetic = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT && !inPhonetic {
				buf.Write(se)
			}
		}
	}
}

// sheetRowReader streams rows out of a worksheet part.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRowReader) Next() ([]string, bool) {
	var cur []string
	inRow := false
	next := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.err = err
			}
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow = true
				cur = nil
				next = 0
			}
			if inRow && se.Name.Local == "c" {
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := next
				if ref != "" {
					if c := colIndexFromRef(ref); c >= 0 {
						col = c
					}
				}
				if col >= maxColumns {
					r.err = fmt.Errorf("cell %q is beyond the last sheet column XFD", ref)
					return nil, false
				}
				next = col + 1
				val, err := r.readCellValue(typ)
				if err != nil {
					r.err = err
					return nil, false
				}
				if len(cur) <= col {
					tmp := make([]string, col+1)
					copy(tmp, cur)
					cur = tmp
				}
				cur[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				return cur, true
			}
		}
	}
}

// readCellValue consumes tokens up to </c> and returns the display text.
func (r *sheetRowReader) readCellValue(typ string) (string, error) {
	var val strings.Builder
	var depthText bool
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", fmt.Errorf("cell: %w", err)
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				depthText = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "v", "t":
				depthText = false
			case "c":
				return cellText(typ, val.String(), r.shared), nil
			}
		case xml.CharData:
			if depthText {
				val.Write(se)
			}
		}
	}
}

func cellText(typ, raw string, shared []string) string {
	switch typ {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 || idx >= len(shared) {
			return ""
		}
		return shared[idx]
	case "b":
		if strings.TrimSpace(raw) == "1" {
			return "TRUE"
		}
		return "FALSE"
	case "e":
		return ""
	case "str", "inlineStr":
		return raw
	default:
		// Numbers are stored with full binary precision; print the shortest form.
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return raw
	}
}

// maxColumns is the sheet width limit of the format (A..XFD).
const maxColumns = 16384

// colIndexFromRef maps refs like "C12" to a 0-based column index. Indexes
// past XFD are reported as maxColumns.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
		if idx > maxColumns {
			return maxColumns
		}
	}
	return idx - 1
}

// normalizeRelPath converts relationship Target paths to ZIP entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
