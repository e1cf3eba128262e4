// Package query implements the row filter language used by custom queries:
// comparisons, arithmetic and boolean logic over column names.
package query

import (
	"fmt"
	"strings"
)

type TokenType int

const (
	// Special
	ILLEGAL TokenType = iota
	EOF

	// Literals
	IDENT  // column name, or `quoted name`
	STRING // 'value' or "value"
	NUMBER // 123, 1.5, 2e3

	// Keywords
	AND
	OR
	NOT
	IN
	TRUE
	FALSE

	// Operators & Punctuation
	EQ       // ==
	NEQ      // !=
	LT       // <
	LTE      // <=
	GT       // >
	GTE      // >=
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	AMP      // &
	PIPE     // |
	TILDE    // ~
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
)

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL", EOF: "end of expression", IDENT: "identifier", STRING: "string", NUMBER: "number",
	AND: "and", OR: "or", NOT: "not", IN: "in", TRUE: "True", FALSE: "False",
	EQ: "==", NEQ: "!=", LT: "<", LTE: "<=", GT: ">", GTE: ">=",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	AMP: "&", PIPE: "|", TILDE: "~",
	LPAREN: "(", RPAREN: ")", LBRACKET: "[", RBRACKET: "]", COMMA: ",",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

var keywords = map[string]TokenType{
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"in":    IN,
	"true":  TRUE,
	"false": FALSE,
}

// Token is one lexeme. Pos is the byte offset of its first character.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}

func (t Token) String() string {
	if t.Type == EOF {
		return t.Type.String()
	}
	return fmt.Sprintf("%q", t.Literal)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the next token. Malformed input yields an ILLEGAL token
// whose Literal describes the problem.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()
	pos := l.position
	if l.position >= len(l.input) {
		return Token{Type: EOF, Pos: len(l.input)}
	}

	two := func(tt TokenType) Token {
		lit := l.input[pos : pos+2]
		l.readChar()
		l.readChar()
		return Token{Type: tt, Literal: lit, Pos: pos}
	}
	one := func(tt TokenType) Token {
		lit := string(l.ch)
		l.readChar()
		return Token{Type: tt, Literal: lit, Pos: pos}
	}

	switch l.ch {
	case '=':
		if l.peekChar() == '=' {
			return two(EQ)
		}
		return Token{Type: ILLEGAL, Literal: "single '=' is not a comparison; use '=='", Pos: pos}
	case '!':
		if l.peekChar() == '=' {
			return two(NEQ)
		}
		return Token{Type: ILLEGAL, Literal: "unexpected '!'", Pos: pos}
	case '<':
		if l.peekChar() == '=' {
			return two(LTE)
		}
		return one(LT)
	case '>':
		if l.peekChar() == '=' {
			return two(GTE)
		}
		return one(GT)
	case '+':
		return one(PLUS)
	case '-':
		return one(MINUS)
	case '*':
		return one(STAR)
	case '/':
		return one(SLASH)
	case '%':
		return one(PERCENT)
	case '&':
		return one(AMP)
	case '|':
		return one(PIPE)
	case '~':
		return one(TILDE)
	case '(':
		return one(LPAREN)
	case ')':
		return one(RPAREN)
	case '[':
		return one(LBRACKET)
	case ']':
		return one(RBRACKET)
	case ',':
		return one(COMMA)
	case '\'', '"':
		lit, ok := l.readString(l.ch)
		if !ok {
			return Token{Type: ILLEGAL, Literal: "unterminated string", Pos: pos}
		}
		return Token{Type: STRING, Literal: lit, Pos: pos}
	case '`':
		lit, ok := l.readString('`')
		if !ok {
			return Token{Type: ILLEGAL, Literal: "unterminated backtick name", Pos: pos}
		}
		return Token{Type: IDENT, Literal: lit, Pos: pos}
	}

	if isLetter(l.ch) {
		lit := l.readIdentifier()
		return Token{Type: lookupIdent(lit), Literal: lit, Pos: pos}
	}
	if isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		lit, ok := l.readNumber()
		if !ok {
			return Token{Type: ILLEGAL, Literal: fmt.Sprintf("malformed number %q", lit), Pos: pos}
		}
		return Token{Type: NUMBER, Literal: lit, Pos: pos}
	}
	return Token{Type: ILLEGAL, Literal: fmt.Sprintf("unexpected character %q", l.ch), Pos: pos}
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber accepts digits with an optional fraction and exponent.
func (l *Lexer) readNumber() (string, bool) {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			return l.input[position:l.position], false
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	// 12abc is neither a number nor a name.
	if isLetter(l.ch) {
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		return l.input[position:l.position], false
	}
	return l.input[position:l.position], true
}

// readString consumes a quoted run and returns its content. A backslash
// escapes the next character.
func (l *Lexer) readString(quote byte) (string, bool) {
	var b strings.Builder
	for {
		l.readChar()
		switch l.ch {
		case 0:
			if l.position >= len(l.input) {
				return "", false
			}
			b.WriteByte(l.ch)
		case quote:
			l.readChar()
			return b.String(), true
		case '\\':
			if quote != '`' {
				l.readChar()
				if l.position >= len(l.input) {
					return "", false
				}
			}
			b.WriteByte(l.ch)
		default:
			b.WriteByte(l.ch)
		}
	}
}

func lookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// Tokenize scans the whole input, stopping at the first malformed token.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == ILLEGAL {
			return nil, &InvalidQueryError{Expr: input, Pos: tok.Pos, Msg: tok.Literal}
		}
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			return tokens, nil
		}
	}
}
