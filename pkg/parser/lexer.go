package parser

import (
	"strings"

	"github.com/leapstack-labs/lineage/pkg/dialect"
	"github.com/leapstack-labs/lineage/pkg/token"
)

// Lexer tokenizes SQL input. Quoting rules and extra operator symbols come
// from the active dialect; a nil dialect falls back to ANSI behavior
// (double-quoted identifiers, no backticks).
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position (after current char)
	ch           byte // current char under examination
	line         int
	column       int
	dialect      *dialect.Dialect
}

// NewLexer creates a new Lexer for the given input and dialect.
func NewLexer(input string, d *dialect.Dialect) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0, dialect: d}
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
	if l.ch == '\n' {
		l.line++
		l.column = 0
	} else {
		l.column++
	}
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) pos() token.Position {
	return token.Position{Line: l.line, Column: l.column, Offset: l.position}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.pos()

	var tok token.Token
	switch l.ch {
	case 0:
		tok = token.Token{Type: token.EOF, Literal: "", Pos: pos}
	case '+':
		tok = l.newToken(token.PLUS, pos)
	case '-':
		tok = l.newToken(token.MINUS, pos)
	case '*':
		tok = l.newToken(token.STAR, pos)
	case '/':
		tok = l.newToken(token.SLASH, pos)
	case '%':
		tok = l.newToken(token.PERCENT, pos)
	case '=':
		tok = l.newToken(token.EQ, pos)
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<=", Pos: pos}
		case '>':
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "<>", Pos: pos}
		default:
			tok = l.newToken(token.LT, pos)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">=", Pos: pos}
		} else {
			tok = l.newToken(token.GT, pos)
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NE, Literal: "!=", Pos: pos}
		} else {
			tok = l.newToken(token.ILLEGAL, pos)
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = token.Token{Type: token.DPIPE, Literal: "||", Pos: pos}
		} else {
			tok = l.newToken(token.ILLEGAL, pos)
		}
	case '(':
		tok = l.newToken(token.LPAREN, pos)
	case ')':
		tok = l.newToken(token.RPAREN, pos)
	case '[':
		tok = l.newToken(token.LBRACKET, pos)
	case ']':
		tok = l.newToken(token.RBRACKET, pos)
	case ',':
		tok = l.newToken(token.COMMA, pos)
	case '.':
		tok = l.newToken(token.DOT, pos)
	case ';':
		tok = l.newToken(token.SEMICOLON, pos)
	case '\'':
		tok = token.Token{Type: token.STRING, Literal: l.readString('\''), Pos: pos}
		return tok
	case '"':
		if l.quotesIdentifiers('"') {
			tok = token.Token{Type: token.IDENT, Literal: l.readQuotedIdent('"'), Pos: pos}
		} else {
			tok = token.Token{Type: token.STRING, Literal: l.readString('"'), Pos: pos}
		}
		return tok
	case '`':
		if l.quotesIdentifiers('`') {
			tok = token.Token{Type: token.IDENT, Literal: l.readQuotedIdent('`'), Pos: pos}
			return tok
		}
		tok = l.newToken(token.ILLEGAL, pos)
	default:
		if isLetter(l.ch) {
			lit := l.readIdentifier()
			return token.Token{Type: l.lookupKeyword(lit), Literal: lit, Pos: pos}
		}
		if isDigit(l.ch) {
			return token.Token{Type: token.NUMBER, Literal: l.readNumber(), Pos: pos}
		}
		if t, lit, ok := l.lookupSymbol(); ok {
			for range len(lit) {
				l.readChar()
			}
			return token.Token{Type: t, Literal: lit, Pos: pos}
		}
		tok = l.newToken(token.ILLEGAL, pos)
	}

	l.readChar()
	return tok
}

func (l *Lexer) newToken(t token.TokenType, pos token.Position) token.Token {
	return token.Token{Type: t, Literal: string(l.ch), Pos: pos}
}

// lookupKeyword resolves an identifier against the built-in keyword table
// first, then against keywords the active dialect registered (ENGINE, ILIKE).
func (l *Lexer) lookupKeyword(ident string) token.TokenType {
	if t := token.LookupIdent(strings.ToLower(ident)); t != token.IDENT {
		return t
	}
	if l.dialect != nil {
		if t, ok := l.dialect.LookupKeyword(ident); ok {
			return t
		}
	}
	return token.IDENT
}

// lookupSymbol matches dialect-registered operator symbols at the current
// position, longest match first.
func (l *Lexer) lookupSymbol() (token.TokenType, string, bool) {
	if l.dialect == nil {
		return token.ILLEGAL, "", false
	}
	syms := l.dialect.Symbols()
	if len(syms) == 0 {
		return token.ILLEGAL, "", false
	}
	if l.peekChar() != 0 {
		two := string(l.ch) + string(l.peekChar())
		if t, ok := syms[two]; ok {
			return t, two, true
		}
	}
	one := string(l.ch)
	if t, ok := syms[one]; ok {
		return t, one, true
	}
	return token.ILLEGAL, "", false
}

// quotesIdentifiers reports whether the given quote character delimits
// identifiers under the active dialect.
func (l *Lexer) quotesIdentifiers(q byte) bool {
	if l.dialect == nil {
		return q == '"' // ANSI default
	}
	ids := l.dialect.Identifiers
	return ids.Quote == string(q) || ids.AltQuote == string(q)
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar() // consume '/'
			l.readChar() // consume '*'
			for l.ch != 0 && !(l.ch == '*' && l.peekChar() == '/') {
				l.readChar()
			}
			if l.ch != 0 {
				l.readChar() // consume '*'
				l.readChar() // consume '/'
			}
		default:
			return
		}
	}
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		if isDigit(l.peekChar()) || ((l.peekChar() == '+' || l.peekChar() == '-') && l.readPosition+1 < len(l.input) && isDigit(l.input[l.readPosition+1])) {
			l.readChar() // consume 'e'
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.position]
}

// readString reads a string literal delimited by q. A doubled delimiter is
// an escaped delimiter and is collapsed in the returned literal.
func (l *Lexer) readString(q byte) string {
	var sb strings.Builder
	l.readChar() // skip opening quote
	for l.ch != 0 {
		if l.ch == q {
			if l.peekChar() == q {
				sb.WriteByte(q)
				l.readChar()
				l.readChar()
				continue
			}
			break
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	l.readChar() // skip closing quote
	return sb.String()
}

// readQuotedIdent reads a quoted identifier delimited by q with the same
// doubling escape as strings.
func (l *Lexer) readQuotedIdent(q byte) string {
	return l.readString(q)
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
