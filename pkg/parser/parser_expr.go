package parser

import (
	"github.com/leapstack-labs/lineage/pkg/dialect"
	"github.com/leapstack-labs/lineage/pkg/token"
)

// Expression parsing using a Pratt parser.
//
// Precedence levels:
//
//	precNone       = 0
//	precOr         = 1
//	precAnd        = 2
//	precNot        = 3
//	precComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	precAddition   = 5  (+, -, ||)
//	precMultiply   = 6  (*, /, %)
//	precUnary      = 7  (-, +, NOT)
//	precPostfix    = 8  (::, [])
//
// ILIKE and :: only tokenize when the active dialect registered them, so the
// parser can list them unconditionally here.
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precAddition
	precMultiply
	precUnary
	precPostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(precNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	// Parse prefix (unary operators and primary expressions)
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	// Parse infix operators while their precedence is >= minPrecedence
	for {
		prec := p.getInfixPrecedence()
		if prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case TOKEN_NOT:
		if p.checkPeek(TOKEN_EXISTS) {
			p.nextToken() // consume NOT
			return p.parseExistsExpr(true)
		}
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precNot)
		return &UnaryExpr{Op: token.NOT, Expr: expr}

	case TOKEN_MINUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precUnary)
		return &UnaryExpr{Op: token.MINUS, Expr: expr}

	case TOKEN_PLUS:
		p.nextToken()
		expr := p.parseExpressionWithPrecedence(precUnary)
		return &UnaryExpr{Op: token.PLUS, Expr: expr}

	default:
		return p.parsePrimary()
	}
}

// getInfixPrecedence returns the precedence of the current token as an infix
// operator, or precNone if it is not one.
func (p *Parser) getInfixPrecedence() int {
	switch p.token.Type {
	case TOKEN_OR:
		return precOr
	case TOKEN_AND:
		return precAnd
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		return precComparison
	case TOKEN_IS, TOKEN_IN, TOKEN_BETWEEN, TOKEN_LIKE:
		return precComparison
	case TOKEN_NOT:
		// NOT as infix (for NOT IN, NOT LIKE, etc.)
		return precComparison
	case TOKEN_PLUS, TOKEN_MINUS, TOKEN_DPIPE:
		return precAddition
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return precMultiply
	case dialect.TokenIlike:
		return precComparison
	case dialect.TokenDColon, TOKEN_LBRACKET:
		return precPostfix
	}
	return precNone
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	// Handle special infix operators first
	switch p.token.Type {
	case TOKEN_NOT:
		// NOT IN, NOT BETWEEN, NOT LIKE, NOT ILIKE
		return p.parseNotInfixExpr(left)

	case TOKEN_IS:
		return p.parseIsExpr(left)

	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, false)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)

	case TOKEN_LIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, false, op)

	case dialect.TokenIlike:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, false, op)

	case dialect.TokenDColon:
		// Postfix cast: expr::type
		p.nextToken()
		return p.parsePostfixCast(left)

	case TOKEN_LBRACKET:
		// Array subscript: expr[index]
		p.nextToken()
		idx := p.parseExpression()
		p.expect(TOKEN_RBRACKET)
		return &IndexExpr{Expr: left, Index: idx}
	}

	// Standard binary operators
	op := p.token
	p.nextToken()

	// Parse right operand with higher precedence (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)

	return &BinaryExpr{Left: left, Op: op.Type, Right: right}
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left Expr) Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, true)

	case TOKEN_BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)

	case TOKEN_LIKE:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, true, op)

	case dialect.TokenIlike:
		op := p.token.Type
		p.nextToken()
		return p.parseLikeExpr(left, true, op)
	}

	p.addError("expected IN, BETWEEN, LIKE, or ILIKE after NOT")
	return left
}

// parseIsExpr parses IS [NOT] NULL / IS [NOT] TRUE / IS [NOT] FALSE.
func (p *Parser) parseIsExpr(left Expr) Expr {
	p.nextToken() // consume IS

	isNot := p.match(TOKEN_NOT)

	switch p.token.Type {
	case TOKEN_NULL:
		p.nextToken()
		return &IsNullExpr{Expr: left, Not: isNot}

	case TOKEN_TRUE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: isNot, Value: true}

	case TOKEN_FALSE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: isNot, Value: false}

	default:
		p.addError("expected NULL, TRUE, or FALSE after IS")
		return left
	}
}

// parseInExpr parses an IN expression.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	p.expect(TOKEN_LPAREN)
	in := &InExpr{Expr: left, Not: not}

	// Check if it's a subquery
	if p.check(TOKEN_SELECT) || p.check(TOKEN_WITH) {
		in.Query = p.parseSelectStmt()
	} else {
		// List of values
		in.Values = p.parseExpressionList()
	}

	p.expect(TOKEN_RPAREN)
	return in
}

// parseBetweenExpr parses a BETWEEN expression.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	between := &BetweenExpr{Expr: left, Not: not}
	// Parse low bound at addition precedence to avoid capturing AND
	between.Low = p.parseExpressionWithPrecedence(precAddition)
	p.expect(TOKEN_AND)
	between.High = p.parseExpressionWithPrecedence(precAddition)
	return between
}

// parseLikeExpr parses a LIKE/ILIKE expression.
func (p *Parser) parseLikeExpr(left Expr, not bool, op token.TokenType) Expr {
	like := &LikeExpr{Expr: left, Not: not, Op: op}
	// Parse pattern at addition precedence
	like.Pattern = p.parseExpressionWithPrecedence(precAddition)
	return like
}

// parsePostfixCast parses the type name following a :: cast operator.
func (p *Parser) parsePostfixCast(left Expr) Expr {
	name := p.parseTypeName()
	if name == "" {
		return left
	}
	return &CastExpr{Expr: left, TypeName: name}
}
