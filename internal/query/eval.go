package query

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/edaloom/internal/dataset"
)

type valueKind int

const (
	nullVal valueKind = iota
	numVal
	strVal
	boolVal
	listVal
)

func (k valueKind) String() string {
	switch k {
	case numVal:
		return "number"
	case strVal:
		return "string"
	case boolVal:
		return "boolean"
	case listVal:
		return "list"
	default:
		return "missing"
	}
}

// Value is the runtime result of evaluating a node for one row.
type Value struct {
	kind valueKind
	num  float64
	str  string
	b    bool
	list []Value
}

var null = Value{}

func number(f float64) Value { return Value{kind: numVal, num: f} }
func boolean(b bool) Value   { return Value{kind: boolVal, b: b} }

// asNumber coerces numbers and booleans; booleans count as 0 and 1.
func (v Value) asNumber() (float64, bool) {
	switch v.kind {
	case numVal:
		return v.num, true
	case boolVal:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// evalFunc evaluates a bound node against one row.
type evalFunc func(row int) (Value, error)

// Filter is a parsed expression bound to the columns of one table.
type Filter struct {
	Expr  Expr
	input string
	table *dataset.Table
	eval  evalFunc
}

// Compile parses input and binds its column references to t. Unknown
// columns are rejected here, before any row is evaluated.
func Compile(input string, t *dataset.Table) (*Filter, error) {
	expr, err := Parse(input)
	if err != nil {
		return nil, err
	}
	f := &Filter{Expr: expr, input: input, table: t}
	f.eval, err = f.bind(expr)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Match reports whether row satisfies the filter. A missing result counts as
// no match; any other non-boolean result is an error.
func (f *Filter) Match(row int) (bool, error) {
	v, err := f.eval(row)
	if err != nil {
		return false, err
	}
	switch v.kind {
	case boolVal:
		return v.b, nil
	case nullVal:
		return false, nil
	default:
		return false, f.errorf(f.Expr, "expression must evaluate to a boolean, got %s", v.kind)
	}
}

// Rows returns the indices of matching rows in table order.
func (f *Filter) Rows() ([]int, error) {
	var idx []int
	for i := 0; i < f.table.NumRows(); i++ {
		ok, err := f.Match(i)
		if err != nil {
			return nil, err
		}
		if ok {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

// Run filters t with the expression in input and returns the matching rows
// as a new table. t is not modified.
func Run(input string, t *dataset.Table) (*dataset.Table, error) {
	f, err := Compile(input, t)
	if err != nil {
		return nil, err
	}
	idx, err := f.Rows()
	if err != nil {
		return nil, err
	}
	return t.SelectRows(idx), nil
}

func (f *Filter) errorf(node Expr, format string, args ...any) error {
	return &InvalidQueryError{Expr: f.input, Pos: node.Pos(), Msg: fmt.Sprintf(format, args...)}
}

func (f *Filter) bind(expr Expr) (evalFunc, error) {
	switch e := expr.(type) {
	case *NumberLit:
		v := number(e.Value)
		return func(int) (Value, error) { return v, nil }, nil
	case *StringLit:
		v := Value{kind: strVal, str: e.Value}
		return func(int) (Value, error) { return v, nil }, nil
	case *BoolLit:
		v := boolean(e.Value)
		return func(int) (Value, error) { return v, nil }, nil
	case *Ident:
		return f.bindColumn(e)
	case *ListLit:
		return f.bindList(e)
	case *UnaryExpr:
		return f.bindUnary(e)
	case *BinaryExpr:
		if e.Op == AND || e.Op == OR {
			return f.bindLogical(e)
		}
		return f.bindArith(e)
	case *CompareExpr:
		return f.bindCompare(e)
	default:
		return nil, f.errorf(expr, "unsupported expression %T", expr)
	}
}

func (f *Filter) bindColumn(id *Ident) (evalFunc, error) {
	col, ok := f.table.Column(id.Name)
	if !ok {
		return nil, f.errorf(id, "unknown column %q", id.Name)
	}
	cells := col.Cells
	switch col.Kind {
	case dataset.KindInt, dataset.KindFloat:
		return func(row int) (Value, error) {
			if c := cells[row]; c.Valid {
				return number(c.Num), nil
			}
			return null, nil
		}, nil
	case dataset.KindBool:
		return func(row int) (Value, error) {
			if c := cells[row]; c.Valid {
				return boolean(c.Bool), nil
			}
			return null, nil
		}, nil
	case dataset.KindString:
		return func(row int) (Value, error) {
			if c := cells[row]; c.Valid {
				return Value{kind: strVal, str: c.Str}, nil
			}
			return null, nil
		}, nil
	default:
		return func(int) (Value, error) { return null, nil }, nil
	}
}

func (f *Filter) bindList(l *ListLit) (evalFunc, error) {
	items := make([]evalFunc, len(l.Items))
	for i, it := range l.Items {
		fn, err := f.bind(it)
		if err != nil {
			return nil, err
		}
		items[i] = fn
	}
	return func(row int) (Value, error) {
		out := Value{kind: listVal, list: make([]Value, len(items))}
		for i, fn := range items {
			v, err := fn(row)
			if err != nil {
				return null, err
			}
			if v.kind == listVal {
				return null, f.errorf(l.Items[i], "nested lists are not supported")
			}
			out.list[i] = v
		}
		return out, nil
	}, nil
}

func (f *Filter) bindUnary(u *UnaryExpr) (evalFunc, error) {
	x, err := f.bind(u.X)
	if err != nil {
		return nil, err
	}
	if u.Op == NOT {
		return func(row int) (Value, error) {
			v, err := x(row)
			if err != nil {
				return null, err
			}
			switch v.kind {
			case boolVal:
				return boolean(!v.b), nil
			case nullVal:
				return null, nil
			}
			return null, f.errorf(u, "operand of not must be boolean, got %s", v.kind)
		}, nil
	}
	return func(row int) (Value, error) {
		v, err := x(row)
		if err != nil {
			return null, err
		}
		if v.kind == nullVal {
			return null, nil
		}
		n, ok := v.asNumber()
		if !ok {
			return null, f.errorf(u, "bad operand type for unary -: %s", v.kind)
		}
		return number(-n), nil
	}, nil
}

func (f *Filter) bindLogical(b *BinaryExpr) (evalFunc, error) {
	left, err := f.bind(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := f.bind(b.Right)
	if err != nil {
		return nil, err
	}
	truth := func(v Value, side Expr) (bool, error) {
		switch v.kind {
		case boolVal:
			return v.b, nil
		case nullVal:
			return false, nil
		}
		return false, f.errorf(side, "operands of %s must be boolean, got %s", b.Op, v.kind)
	}
	return func(row int) (Value, error) {
		// Both sides are evaluated so type errors surface on every row.
		lv, err := left(row)
		if err != nil {
			return null, err
		}
		rv, err := right(row)
		if err != nil {
			return null, err
		}
		l, err := truth(lv, b.Left)
		if err != nil {
			return null, err
		}
		r, err := truth(rv, b.Right)
		if err != nil {
			return null, err
		}
		if b.Op == AND {
			return boolean(l && r), nil
		}
		return boolean(l || r), nil
	}, nil
}

func (f *Filter) bindArith(b *BinaryExpr) (evalFunc, error) {
	left, err := f.bind(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := f.bind(b.Right)
	if err != nil {
		return nil, err
	}
	return func(row int) (Value, error) {
		lv, err := left(row)
		if err != nil {
			return null, err
		}
		rv, err := right(row)
		if err != nil {
			return null, err
		}
		if lv.kind == nullVal || rv.kind == nullVal {
			return null, nil
		}
		if b.Op == PLUS && lv.kind == strVal && rv.kind == strVal {
			return Value{kind: strVal, str: lv.str + rv.str}, nil
		}
		x, okx := lv.asNumber()
		y, oky := rv.asNumber()
		if !okx || !oky {
			return null, f.errorf(b, "unsupported operand types for %s: %s and %s", b.Op, lv.kind, rv.kind)
		}
		switch b.Op {
		case PLUS:
			return number(x + y), nil
		case MINUS:
			return number(x - y), nil
		case STAR:
			return number(x * y), nil
		case SLASH:
			return number(x / y), nil
		default:
			return number(floorMod(x, y)), nil
		}
	}, nil
}

// floorMod takes the sign of the divisor.
func floorMod(x, y float64) float64 {
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

func (f *Filter) bindCompare(c *CompareExpr) (evalFunc, error) {
	operands := make([]evalFunc, len(c.Operands))
	for i, o := range c.Operands {
		fn, err := f.bind(o)
		if err != nil {
			return nil, err
		}
		operands[i] = fn
	}
	return func(row int) (Value, error) {
		lv, err := operands[0](row)
		if err != nil {
			return null, err
		}
		result := true
		for i, op := range c.Ops {
			rv, err := operands[i+1](row)
			if err != nil {
				return null, err
			}
			ok, err := f.compare(c.Operands[i+1], op, lv, rv)
			if err != nil {
				return null, err
			}
			result = result && ok
			lv = rv
		}
		return boolean(result), nil
	}, nil
}

func (f *Filter) compare(at Expr, op CompareOp, a, b Value) (bool, error) {
	if op.Type == IN {
		if b.kind != listVal {
			return false, f.errorf(at, "right side of %s must be a list, got %s", op, b.kind)
		}
		found := false
		if a.kind != nullVal {
			for _, item := range b.list {
				if equalValues(a, item) {
					found = true
					break
				}
			}
		}
		return found != op.Negate, nil
	}
	if a.kind == listVal || b.kind == listVal {
		return false, f.errorf(at, "lists can only be used with in / not in")
	}
	if a.kind == nullVal || b.kind == nullVal {
		return op.Type == NEQ, nil
	}
	switch op.Type {
	case EQ:
		return equalValues(a, b), nil
	case NEQ:
		return !equalValues(a, b), nil
	}
	if a.kind == strVal && b.kind == strVal {
		return ordered(op.Type, compareStrings(a.str, b.str)), nil
	}
	x, okx := a.asNumber()
	y, oky := b.asNumber()
	if !okx || !oky {
		return false, f.errorf(at, "cannot compare %s with %s using %s", a.kind, b.kind, op)
	}
	switch {
	case x < y:
		return ordered(op.Type, -1), nil
	case x > y:
		return ordered(op.Type, 1), nil
	case x == y:
		return ordered(op.Type, 0), nil
	}
	return false, nil // NaN
}

func equalValues(a, b Value) bool {
	if a.kind == nullVal || b.kind == nullVal {
		return false
	}
	if a.kind == strVal || b.kind == strVal {
		return a.kind == b.kind && a.str == b.str
	}
	x, okx := a.asNumber()
	y, oky := b.asNumber()
	return okx && oky && x == y
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func ordered(op TokenType, cmp int) bool {
	switch op {
	case LT:
		return cmp < 0
	case LTE:
		return cmp <= 0
	case GT:
		return cmp > 0
	case GTE:
		return cmp >= 0
	}
	return false
}
