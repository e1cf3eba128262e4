package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a node of a parsed filter expression.
type Expr interface {
	Pos() int
	String() string
}

// Ident references a column by name.
type Ident struct {
	Name string
	At   int
}

func (i *Ident) Pos() int       { return i.At }
func (i *Ident) String() string { return "`" + i.Name + "`" }

// NumberLit is a numeric literal.
type NumberLit struct {
	Value float64
	At    int
}

func (n *NumberLit) Pos() int       { return n.At }
func (n *NumberLit) String() string { return strconv.FormatFloat(n.Value, 'g', -1, 64) }

// StringLit is a quoted string literal.
type StringLit struct {
	Value string
	At    int
}

func (s *StringLit) Pos() int       { return s.At }
func (s *StringLit) String() string { return strconv.Quote(s.Value) }

// BoolLit is True or False.
type BoolLit struct {
	Value bool
	At    int
}

func (b *BoolLit) Pos() int { return b.At }
func (b *BoolLit) String() string {
	if b.Value {
		return "True"
	}
	return "False"
}

// ListLit is a bracketed list, the right side of in / not in.
type ListLit struct {
	Items []Expr
	At    int
}

func (l *ListLit) Pos() int { return l.At }
func (l *ListLit) String() string {
	parts := make([]string, len(l.Items))
	for i, it := range l.Items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnaryExpr is negation (-x) or logical not.
type UnaryExpr struct {
	Op TokenType // MINUS or NOT
	X  Expr
	At int
}

func (u *UnaryExpr) Pos() int { return u.At }
func (u *UnaryExpr) String() string {
	if u.Op == NOT {
		return fmt.Sprintf("(not %s)", u.X)
	}
	return fmt.Sprintf("(-%s)", u.X)
}

// BinaryExpr is arithmetic or boolean logic between two operands.
type BinaryExpr struct {
	Op          TokenType // PLUS MINUS STAR SLASH PERCENT AND OR
	Left, Right Expr
	At          int
}

func (b *BinaryExpr) Pos() int { return b.At }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// CompareExpr is a comparison chain: a < b <= c means a < b and b <= c.
// len(Operands) == len(Ops)+1.
type CompareExpr struct {
	Ops      []CompareOp
	Operands []Expr
	At       int
}

// CompareOp is one link of a comparison chain.
type CompareOp struct {
	Type   TokenType // EQ NEQ LT LTE GT GTE IN
	Negate bool      // not in
}

func (c CompareOp) String() string {
	if c.Negate {
		return "not in"
	}
	return c.Type.String()
}

func (c *CompareExpr) Pos() int { return c.At }
func (c *CompareExpr) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(c.Operands[0].String())
	for i, op := range c.Ops {
		fmt.Fprintf(&b, " %s %s", op, c.Operands[i+1])
	}
	b.WriteString(")")
	return b.String()
}
