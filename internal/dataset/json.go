package dataset

import "encoding/json"

type tableJSON struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Kinds   []string `json:"kinds"`
	Rows    [][]any  `json:"rows"`
}

// MarshalJSON writes the table row-major with typed values and null for
// missing cells.
func (t *Table) MarshalJSON() ([]byte, error) {
	out := tableJSON{
		Name:    t.Name,
		Columns: t.ColumnNames(),
		Kinds:   make([]string, t.NumCols()),
		Rows:    make([][]any, t.NumRows()),
	}
	for j, c := range t.Columns {
		out.Kinds[j] = c.Kind.String()
	}
	for i := range out.Rows {
		row := make([]any, t.NumCols())
		for j, c := range t.Columns {
			row[j] = c.Cells[i].Value(c.Kind)
		}
		out.Rows[i] = row
	}
	return json.Marshal(out)
}

// Value returns the cell as a plain Go value for the given column kind:
// int64, float64, bool, string, or nil when missing.
func (c Cell) Value(kind Kind) any {
	if !c.Valid {
		return nil
	}
	switch kind {
	case KindInt:
		return c.Int
	case KindFloat:
		return c.Num
	case KindBool:
		return c.Bool
	default:
		return c.Str
	}
}
