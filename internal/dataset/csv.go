package dataset

import (
	"bytes"
	"encoding/csv"
)

// EncodeCSV writes the header and every row, comma separated, without an
// index column. Missing cells become empty fields.
func EncodeCSV(t *Table) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(t.ColumnNames())
	rec := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.Columns {
			cell := c.Cells[i]
			if cell.Valid {
				rec[j] = cell.Str
			} else {
				rec[j] = ""
			}
		}
		if len(rec) == 1 && rec[0] == "" {
			// A bare empty line would be skipped on read; quote it instead.
			w.Flush()
			buf.WriteString("\"\"\n")
			continue
		}
		_ = w.Write(rec)
	}
	w.Flush()
	return buf.Bytes()
}
