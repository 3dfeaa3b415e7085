package parser

import (
	"fmt"
	"strings"
)

// Primary expression parsing: literals, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | column_ref | func_call | paren_expr | case_expr
//	              | cast_expr | exists_expr | subquery
//	literal       → NUMBER | STRING | TRUE | FALSE | NULL
//	column_ref    → [qualifier "."] column
//	func_call     → identifier "(" [DISTINCT] [expr_list | "*"] ")" [OVER window_spec]
//
// Function names keep their surface spelling: ClickHouse is case sensitive
// about anyLast vs ANYLAST, and lineage output reports functions exactly as
// written before canonicalization.

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() Expr {
	switch p.token.Type {
	case TOKEN_NUMBER:
		lit := &Literal{Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_STRING:
		lit := &Literal{Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case TOKEN_TRUE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "true"}

	case TOKEN_FALSE:
		p.nextToken()
		return &Literal{Type: LiteralBool, Value: "false"}

	case TOKEN_NULL:
		p.nextToken()
		return &Literal{Type: LiteralNull, Value: "null"}

	case TOKEN_CASE:
		return p.parseCaseExpr()

	case TOKEN_CAST:
		return p.parseCastExpr()

	case TOKEN_EXISTS:
		return p.parseExistsExpr(false)

	case TOKEN_IF, TOKEN_LEFT, TOKEN_RIGHT, TOKEN_REPLACE:
		// Keywords that double as function names: if(cond, a, b) in
		// ClickHouse, LEFT/RIGHT/REPLACE string functions elsewhere.
		if p.checkPeek(TOKEN_LPAREN) {
			name := p.token.Literal
			p.nextToken()
			return p.parseFuncCall(name)
		}
		p.addError(fmt.Sprintf("unexpected token in expression: %s", p.token.Type))
		p.nextToken()
		return nil

	case TOKEN_LPAREN:
		return p.parseParenExpr()

	case TOKEN_STAR:
		// SELECT * context
		p.nextToken()
		return &StarExpr{}

	default:
		if identLike(p.token) {
			return p.parseIdentifierExpr()
		}
		p.addError(fmt.Sprintf("unexpected token in expression: %s", p.token.Type))
		p.nextToken()
		return nil
	}
}

// parseIdentifierExpr parses an identifier which could be a column ref or function call.
func (p *Parser) parseIdentifierExpr() Expr {
	name := p.token.Literal
	p.nextToken()

	// Check if it's a function call
	if p.check(TOKEN_LPAREN) {
		return p.parseFuncCall(name)
	}

	// Qualified column reference: table.column or db.table.column
	if p.check(TOKEN_DOT) {
		return p.parseQualifiedColumnRef(name)
	}

	// Simple column reference
	return &ColumnRef{Column: name}
}

// parseQualifiedColumnRef parses a qualified column reference. All leading
// parts fold into the qualifier, so db.table.column keeps "db.table".
func (p *Parser) parseQualifiedColumnRef(firstPart string) Expr {
	parts := []string{firstPart}

	for p.match(TOKEN_DOT) {
		// Check for table.*
		if p.check(TOKEN_STAR) {
			p.nextToken()
			return &StarExpr{Table: strings.Join(parts, ".")}
		}

		if identLike(p.token) {
			parts = append(parts, p.token.Literal)
			p.nextToken()
		}
	}

	return &ColumnRef{
		Table:  strings.Join(parts[:len(parts)-1], "."),
		Column: parts[len(parts)-1],
	}
}

// parseFuncCall parses a function call. The opening paren is the current token.
func (p *Parser) parseFuncCall(name string) Expr {
	fn := &FuncCall{Name: name}

	p.expect(TOKEN_LPAREN)

	// Handle COUNT(*) or other aggregate(*)
	if p.check(TOKEN_STAR) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(TOKEN_RPAREN) {
		// Check for DISTINCT
		if p.match(TOKEN_DISTINCT) {
			fn.Distinct = true
		}

		// Parse arguments
		for {
			arg := p.parseExpression()
			fn.Args = append(fn.Args, arg)

			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}

	p.expect(TOKEN_RPAREN)

	// OVER clause (window function)
	if p.match(TOKEN_OVER) {
		fn.Window = p.parseWindowSpec()
	}

	return fn
}

// parseParenExpr parses a parenthesized expression or a scalar subquery.
func (p *Parser) parseParenExpr() Expr {
	p.expect(TOKEN_LPAREN)

	// Scalar subquery
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		sub := &SubqueryExpr{Select: p.parseSelectStmt()}
		p.expect(TOKEN_RPAREN)
		return sub
	}

	expr := p.parseExpression()
	p.expect(TOKEN_RPAREN)
	return &ParenExpr{Expr: expr}
}

// parseCaseExpr parses a CASE expression.
func (p *Parser) parseCaseExpr() Expr {
	p.expect(TOKEN_CASE)
	caseExpr := &CaseExpr{}

	// Optional operand: CASE x WHEN ...
	if !p.check(TOKEN_WHEN) {
		caseExpr.Operand = p.parseExpression()
	}

	for p.match(TOKEN_WHEN) {
		when := WhenClause{}
		when.Condition = p.parseExpression()
		p.expect(TOKEN_THEN)
		when.Result = p.parseExpression()
		caseExpr.Whens = append(caseExpr.Whens, when)
	}

	if p.match(TOKEN_ELSE) {
		caseExpr.Else = p.parseExpression()
	}

	p.expect(TOKEN_END)
	return caseExpr
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	p.expect(TOKEN_CAST)
	p.expect(TOKEN_LPAREN)
	cast := &CastExpr{}
	cast.Expr = p.parseExpression()
	p.expect(TOKEN_AS)
	cast.TypeName = p.parseTypeName()
	p.expect(TOKEN_RPAREN)
	return cast
}

// parseTypeName parses a type name with optional arguments, returning its
// text form: Decimal(10, 2), Nullable(String), numeric.
func (p *Parser) parseTypeName() string {
	name, ok := p.parseIdentifier()
	if !ok {
		return ""
	}
	if !p.match(TOKEN_LPAREN) {
		return name
	}
	var args []string
	for !p.check(TOKEN_RPAREN) && !p.check(TOKEN_EOF) {
		args = append(args, p.token.Literal)
		p.nextToken()
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN)
	return name + "(" + strings.Join(args, ", ") + ")"
}

// parseExistsExpr parses an EXISTS (subquery) expression.
func (p *Parser) parseExistsExpr(not bool) Expr {
	p.expect(TOKEN_EXISTS)
	p.expect(TOKEN_LPAREN)
	exists := &ExistsExpr{Not: not}
	exists.Select = p.parseSelectStmt()
	p.expect(TOKEN_RPAREN)
	return exists
}
