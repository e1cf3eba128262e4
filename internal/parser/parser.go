package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Records is the raw rectangular content of a decoded file: a header row and
// data rows, every row padded to the header width.
type Records struct {
	Header []string
	Rows   [][]string
}

// Options tunes decoding. Zero value means defaults.
type Options struct {
	// Delimiter for delimited text. If 0, chosen by extension.
	Delimiter rune
	// Sheet selects a worksheet by name for spreadsheet formats; empty means first sheet.
	Sheet string
}

// Parser defines a tabular format decoder.
type Parser interface {
	CanParse(filename string) bool
	Parse(content []byte, opt Options) (*Records, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// Parse selects a parser based on the filename extension and decodes content.
// Unknown extensions return *UnsupportedFormatError; any decoder failure is
// returned as *DecodeError.
func Parse(filename string, content []byte, opt Options) (*Records, error) {
	for _, p := range registry {
		if !p.CanParse(filename) {
			continue
		}
		recs, err := p.Parse(content, opt)
		if err != nil {
			return nil, &DecodeError{Name: filepath.Base(filename), Err: err}
		}
		if len(recs.Header) == 0 {
			return nil, &DecodeError{Name: filepath.Base(filename), Err: errNoColumns}
		}
		return recs, nil
	}
	return nil, &UnsupportedFormatError{Ext: strings.ToLower(filepath.Ext(filename))}
}

// ParseFile reads path from disk and decodes it with Parse.
func ParseFile(path string, opt Options) (*Records, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Parse(path, data, opt)
}

// Supported lists the extensions handled by the registered parsers.
func Supported() []string {
	return []string{".csv", ".tsv", ".xlsx", ".xls"}
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
	Register(xlsParser{})
}

// normalize pads short rows to the header width.
func normalize(header []string, rows [][]string) (*Records, error) {
	ncol := len(header)
	for i, row := range rows {
		if len(row) > ncol {
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", ncol, i+2, len(row))
		}
		if len(row) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, row)
			rows[i] = tmp
		}
	}
	return &Records{Header: header, Rows: rows}, nil
}
