package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser is a recursive-descent parser over a token stream.
type Parser struct {
	input   string
	tokens  []Token
	curPos  int
	curTok  Token
	peekTok Token
}

func NewParser(input string, tokens []Token) *Parser {
	p := &Parser{input: input, tokens: tokens}
	// Read two tokens to set curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if p.curPos < len(p.tokens) {
		p.peekTok = p.tokens[p.curPos]
		p.curPos++
	} else {
		p.peekTok = Token{Type: EOF, Pos: len(p.input)}
	}
}

func (p *Parser) errorf(pos int, format string, args ...any) error {
	return &InvalidQueryError{Expr: p.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Parse scans and parses a complete filter expression.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &InvalidQueryError{Expr: input, Msg: "empty expression"}
	}
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	p := NewParser(input, tokens)
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.curTok.Type != EOF {
		return nil, p.errorf(p.curTok.Pos, "unexpected %s after complete expression", p.curTok)
	}
	return expr, nil
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == OR || p.curTok.Type == PIPE {
		at := p.curTok.Pos
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: OR, Left: left, Right: right, At: at}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == AND || p.curTok.Type == AMP {
		at := p.curTok.Pos
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: AND, Left: left, Right: right, At: at}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.curTok.Type == NOT || p.curTok.Type == TILDE {
		at := p.curTok.Pos
		p.nextToken()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: NOT, X: x, At: at}, nil
	}
	return p.parseComparison()
}

func (p *Parser) compareOp() (CompareOp, bool) {
	switch p.curTok.Type {
	case EQ, NEQ, LT, LTE, GT, GTE, IN:
		return CompareOp{Type: p.curTok.Type}, true
	case NOT:
		if p.peekTok.Type == IN {
			return CompareOp{Type: IN, Negate: true}, true
		}
	}
	return CompareOp{}, false
}

func (p *Parser) parseComparison() (Expr, error) {
	first, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	op, ok := p.compareOp()
	if !ok {
		return first, nil
	}
	cmp := &CompareExpr{Operands: []Expr{first}, At: p.curTok.Pos}
	for ok {
		if op.Negate {
			p.nextToken()
		}
		p.nextToken()
		next, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Operands = append(cmp.Operands, next)
		op, ok = p.compareOp()
	}
	return cmp, nil
}

func (p *Parser) parseSum() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == PLUS || p.curTok.Type == MINUS {
		op, at := p.curTok.Type, p.curTok.Pos
		p.nextToken()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, At: at}
	}
	return left, nil
}

func (p *Parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curTok.Type == STAR || p.curTok.Type == SLASH || p.curTok.Type == PERCENT {
		op, at := p.curTok.Type, p.curTok.Pos
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right, At: at}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.curTok.Type == MINUS {
		at := p.curTok.Pos
		p.nextToken()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: MINUS, X: x, At: at}, nil
	}
	if p.curTok.Type == PLUS {
		p.nextToken()
		return p.parseUnary()
	}
	return p.parseAtom()
}

func (p *Parser) parseAtom() (Expr, error) {
	tok := p.curTok
	switch tok.Type {
	case NUMBER:
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "malformed number %q", tok.Literal)
		}
		p.nextToken()
		return &NumberLit{Value: v, At: tok.Pos}, nil
	case STRING:
		p.nextToken()
		return &StringLit{Value: tok.Literal, At: tok.Pos}, nil
	case TRUE, FALSE:
		p.nextToken()
		return &BoolLit{Value: tok.Type == TRUE, At: tok.Pos}, nil
	case IDENT:
		p.nextToken()
		return &Ident{Name: tok.Literal, At: tok.Pos}, nil
	case LPAREN:
		p.nextToken()
		x, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.curTok.Type != RPAREN {
			return nil, p.errorf(p.curTok.Pos, "expected ')' but found %s", p.curTok)
		}
		p.nextToken()
		return x, nil
	case LBRACKET:
		return p.parseList()
	case EOF:
		return nil, p.errorf(tok.Pos, "unexpected end of expression")
	default:
		return nil, p.errorf(tok.Pos, "unexpected %s", tok)
	}
}

func (p *Parser) parseList() (Expr, error) {
	list := &ListLit{At: p.curTok.Pos}
	p.nextToken()
	if p.curTok.Type == RBRACKET {
		p.nextToken()
		return list, nil
	}
	for {
		item, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
		switch p.curTok.Type {
		case COMMA:
			p.nextToken()
			if p.curTok.Type == RBRACKET {
				p.nextToken()
				return list, nil
			}
		case RBRACKET:
			p.nextToken()
			return list, nil
		default:
			return nil, p.errorf(p.curTok.Pos, "expected ',' or ']' but found %s", p.curTok)
		}
	}
}
