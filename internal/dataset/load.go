package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/edaloom/internal/parser"
)

// Source is where a table comes from: an uploaded payload or the bundled sample.
type Source interface {
	source()
}

// Upload is a user-supplied file. The decoder is chosen from Filename's extension.
type Upload struct {
	Filename string
	Data     []byte
	// Sheet selects a worksheet in spreadsheet uploads; empty means the first one.
	Sheet string
}

// Sample is the bundled example dataset.
type Sample struct{}

func (Upload) source() {}
func (Sample) source() {}

// Load decodes src into a typed table. Failures are *parser.UnsupportedFormatError
// or *parser.DecodeError; no partial table is returned.
func Load(src Source) (*Table, error) {
	switch s := src.(type) {
	case Upload:
		recs, err := parser.Parse(s.Filename, s.Data, parser.Options{Sheet: s.Sheet})
		if err != nil {
			return nil, err
		}
		return FromRecords(tableName(s.Filename), recs), nil
	case Sample:
		recs, err := parser.Parse(SampleName, sampleCSV, parser.Options{})
		if err != nil {
			return nil, err
		}
		return FromRecords(tableName(SampleName), recs), nil
	default:
		return nil, fmt.Errorf("unknown source %T", src)
	}
}

// LoadFile reads a table from disk.
func LoadFile(path, sheet string) (*Table, error) {
	recs, err := parser.ParseFile(path, parser.Options{Sheet: sheet})
	if err != nil {
		return nil, err
	}
	return FromRecords(tableName(path), recs), nil
}

func tableName(filename string) string {
	base := filepath.Base(filename)
	return base[:len(base)-len(filepath.Ext(base))]
}
