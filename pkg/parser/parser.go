// Package parser provides SQL parsing with dialect-aware tokenization.
//
// # Usage
//
//	d, err := dialect.Get("clickhouse")
//	stmt, err := parser.Parse("SELECT a, b FROM t", d)
//
// Multi-statement scripts are split first, then parsed one statement at a
// time so that a syntax error in one statement does not poison the rest:
//
//	for _, text := range parser.SplitStatements(script, d) {
//	    stmt, err := parser.Parse(text, d)
//	    ...
//	}
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the SQL subset that
// matters for lineage:
//
//	statement     → create_table | select_stmt
//	create_table  → CREATE [OR REPLACE] TABLE [IF NOT EXISTS] table_name
//	                [ENGINE = ident [(args)] (PARTITION BY expr | ORDER BY order_list)*]
//	                [USING ident] AS select_stmt
//	select_stmt   → [WITH [RECURSIVE] cte_list] select_body
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL] select_body]
//	select_core   → SELECT [DISTINCT] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/lineage/pkg/dialect"
	"github.com/leapstack-labs/lineage/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	token   Token // current token
	peek    Token // lookahead token
	peek2   Token // second lookahead token
	errors  []error
	dialect *dialect.Dialect // required
}

// NewParser creates a new parser for the given SQL input and dialect.
func NewParser(sql string, d *dialect.Dialect) *Parser {
	p := &Parser{
		lexer:   NewLexer(sql, d),
		dialect: d,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single SQL statement and returns its AST. Input must hold
// exactly one statement; anything left over after it is an error.
func Parse(sql string, d *dialect.Dialect) (Statement, error) {
	p := NewParser(sql, d)
	stmt := p.parseStatement()
	if !p.check(TOKEN_SEMICOLON) && !p.check(TOKEN_EOF) {
		p.addError(fmt.Sprintf("unexpected token after statement: %s", p.token.Type))
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// SplitStatements splits a SQL script into individual statement texts on
// top-level semicolons. Splitting is token-driven, so semicolons inside
// string literals, quoted identifiers, and comments do not end a statement.
// Empty statements (stray semicolons, trailing whitespace) are dropped.
func SplitStatements(sql string, d *dialect.Dialect) []string {
	l := NewLexer(sql, d)
	var stmts []string
	start := 0
	for {
		tok := l.NextToken()
		switch tok.Type {
		case token.SEMICOLON:
			if s := strings.TrimSpace(sql[start:tok.Pos.Offset]); s != "" {
				stmts = append(stmts, s)
			}
			start = tok.Pos.Offset + 1
		case token.EOF:
			if s := strings.TrimSpace(sql[start:]); s != "" {
				stmts = append(stmts, s)
			}
			return stmts
		}
	}
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

// Errors returns all errors accumulated during parsing.
func (p *Parser) Errors() []error {
	return p.errors
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// checkPeek2 returns true if the peek2 token is of the given type.
func (p *Parser) checkPeek2(t TokenType) bool {
	return p.peek2.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, t))
	return false
}

// addError adds a parse error at the current token position.
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

// ---------- Identifier Helpers ----------

// identLike returns true if the token can serve as an identifier. Dialect
// keywords double as names so that columns called engine or view keep
// working where the grammar wants a name.
func identLike(tok Token) bool {
	return tok.Type == token.IDENT || token.IsDynamic(tok.Type)
}

// parseIdentifier consumes an identifier token and returns its literal.
func (p *Parser) parseIdentifier() (string, bool) {
	if identLike(p.token) {
		name := p.token.Literal
		p.nextToken()
		return name, true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token.Type, token.IDENT))
	return "", false
}

// ---------- Keyword Helpers ----------

// isKeyword returns true if the token is a reserved keyword that can't be
// used as an implicit alias.
func (p *Parser) isKeyword(tok Token) bool {
	return token.IsKeyword(tok.Type)
}

// isJoinKeyword returns true if token is a JOIN-related keyword.
func (p *Parser) isJoinKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_JOIN, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_INNER, TOKEN_OUTER,
		TOKEN_FULL, TOKEN_CROSS, TOKEN_ON, TOKEN_LATERAL:
		return true
	}
	return false
}

// isClauseKeyword returns true if token starts a new clause.
func (p *Parser) isClauseKeyword(tok Token) bool {
	switch tok.Type {
	case TOKEN_FROM, TOKEN_WHERE, TOKEN_GROUP, TOKEN_HAVING, TOKEN_ORDER,
		TOKEN_LIMIT, TOKEN_OFFSET, TOKEN_UNION, TOKEN_INTERSECT, TOKEN_EXCEPT:
		return true
	}
	return false
}
