// Package dataset holds the in-memory table model and its ingestion.
package dataset

import (
	"strconv"
	"strings"
)

// Kind is the inferred scalar type of a column.
type Kind int

const (
	KindEmpty Kind = iota // every cell missing
	KindInt
	KindFloat
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	default:
		return "empty"
	}
}

// Numeric reports whether the kind takes part in numeric operations.
func (k Kind) Numeric() bool { return k == KindInt || k == KindFloat }

// Cell is one value. Str always holds the canonical text of a valid cell.
type Cell struct {
	Valid bool
	Num   float64 // int and float columns
	Int   int64   // int columns
	Bool  bool
	Str   string
}

// Missing is the missing-value cell.
var Missing = Cell{}

// Column is a named, uniformly typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	Cells []Cell
}

// MissingCount returns how many cells in the column are missing.
func (c *Column) MissingCount() int {
	n := 0
	for _, cell := range c.Cells {
		if !cell.Valid {
			n++
		}
	}
	return n
}

// Floats returns the non-missing numeric values in row order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, cell := range c.Cells {
		if cell.Valid {
			out = append(out, cell.Num)
		}
	}
	return out
}

// Table is an ordered set of equal-length columns with unique names.
type Table struct {
	Name    string
	Columns []*Column
}

// NumRows returns the shared column length.
func (t *Table) NumRows() int {
	if t == nil || len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks a column up by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the names of int and float columns. It is derived
// from the current columns on every call.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.Columns {
		if c.Kind.Numeric() {
			out = append(out, c.Name)
		}
	}
	return out
}

// Row returns the cells of row i across all columns.
func (t *Table) Row(i int) []Cell {
	row := make([]Cell, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Cells[i]
	}
	return row
}

// Clone returns an independent deep copy.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, len(c.Cells))
		copy(cells, c.Cells)
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return out
}

// SelectRows returns a new table with the given rows in the given order.
// Column kinds are kept as they are.
func (t *Table) SelectRows(idx []int) *Table {
	out := &Table{Name: t.Name, Columns: make([]*Column, len(t.Columns))}
	for i, c := range t.Columns {
		cells := make([]Cell, len(idx))
		for k, r := range idx {
			cells[k] = c.Cells[r]
		}
		out.Columns[i] = &Column{Name: c.Name, Kind: c.Kind, Cells: cells}
	}
	return out
}

// Head returns the first n rows.
func (t *Table) Head(n int) *Table {
	if n > t.NumRows() {
		n = t.NumRows()
	}
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.SelectRows(idx)
}

// Equal reports whether both tables have the same columns, kinds and cells.
func (t *Table) Equal(o *Table) bool {
	if t.NumCols() != o.NumCols() || t.NumRows() != o.NumRows() {
		return false
	}
	for i, c := range t.Columns {
		oc := o.Columns[i]
		if c.Name != oc.Name || c.Kind != oc.Kind {
			return false
		}
		for r := range c.Cells {
			a, b := c.Cells[r], oc.Cells[r]
			if a.Valid != b.Valid || (a.Valid && a.Str != b.Str) {
				return false
			}
		}
	}
	return true
}

// MissingCount returns the total number of missing cells.
func (t *Table) MissingCount() int {
	n := 0
	for _, c := range t.Columns {
		n += c.MissingCount()
	}
	return n
}

// rowKey encodes a row for duplicate detection. Present cells are length
// prefixed so no cell content can run into the next one.
func (t *Table) rowKey(i int) string {
	var b strings.Builder
	for _, c := range t.Columns {
		cell := c.Cells[i]
		if !cell.Valid {
			b.WriteString("-;")
			continue
		}
		b.WriteString(strconv.Itoa(len(cell.Str)))
		b.WriteByte(':')
		b.WriteString(cell.Str)
	}
	return b.String()
}

// DuplicateMask marks every row that repeats an earlier row exactly.
// Missing cells compare equal to each other.
func (t *Table) DuplicateMask() []bool {
	n := t.NumRows()
	mask := make([]bool, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		k := t.rowKey(i)
		if _, ok := seen[k]; ok {
			mask[i] = true
			continue
		}
		seen[k] = struct{}{}
	}
	return mask
}

// DuplicateRowCount returns the number of rows that repeat an earlier row.
func (t *Table) DuplicateRowCount() int {
	n := 0
	for _, dup := range t.DuplicateMask() {
		if dup {
			n++
		}
	}
	return n
}

// DropMissing returns a copy without rows that have any missing cell.
func (t *Table) DropMissing() *Table {
	var keep []int
	for i := 0; i < t.NumRows(); i++ {
		complete := true
		for _, c := range t.Columns {
			if !c.Cells[i].Valid {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}
	return t.SelectRows(keep)
}

// DropDuplicates returns a copy keeping only the first occurrence of each row.
func (t *Table) DropDuplicates() *Table {
	var keep []int
	for i, dup := range t.DuplicateMask() {
		if !dup {
			keep = append(keep, i)
		}
	}
	return t.SelectRows(keep)
}
