package parser

import (
	"strings"

	"github.com/leapstack-labs/lineage/pkg/dialect"
)

// FROM clause parsing: table references, derived tables, JOINs, and Spark
// LATERAL VIEW generators.
//
// Grammar:
//
//	from_clause   → table_ref (join | lateral_view)*
//	table_ref     → table_name | derived_table
//	table_name    → identifier ("." identifier)* [[AS] identifier]
//	derived_table → "(" select_stmt ")" [AS] identifier
//	join          → join_type JOIN table_ref [ON expr | USING "(" columns ")"]
//	              | "," table_ref
//	join_type     → [INNER] | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS
//	lateral_view  → LATERAL VIEW [OUTER] func_call [identifier] AS identifier ("," identifier)*
//
// LATERAL VIEW only parses when the active dialect registered the VIEW
// keyword (Spark). Qualified names beyond two parts fold the leading parts
// into the database qualifier, so a.b.c becomes database "a.b", table "c".

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *FromClause {
	from := &FromClause{}
	from.Source = p.parseTableRef()

	for {
		if p.supportsLateralView() && p.check(TOKEN_LATERAL) && p.checkPeek(dialect.TokenView) {
			from.LateralViews = append(from.LateralViews, p.parseLateralView())
			continue
		}

		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	return from
}

func (p *Parser) supportsLateralView() bool {
	return p.dialect != nil && p.dialect.SupportsLateralView
}

// parseTableRef parses a table reference.
func (p *Parser) parseTableRef() TableRef {
	// Derived table (subquery)
	if p.check(TOKEN_LPAREN) {
		return p.parseDerivedTable()
	}

	// Simple table name
	return p.parseTableName(true)
}

// parseTableName parses a (possibly qualified) table name. The alias is
// skipped for CREATE TABLE targets, where trailing keywords like ENGINE
// would otherwise read as an alias.
func (p *Parser) parseTableName(allowAlias bool) *TableName {
	table := &TableName{}

	if !identLike(p.token) {
		p.addError("expected table name")
		return table
	}

	// Parse potentially qualified name: db.table or catalog.db.table
	parts := []string{p.token.Literal}
	p.nextToken()

	for p.match(TOKEN_DOT) {
		if identLike(p.token) {
			parts = append(parts, p.token.Literal)
			p.nextToken()
		}
	}

	table.Name = parts[len(parts)-1]
	if len(parts) > 1 {
		table.Database = strings.Join(parts[:len(parts)-1], ".")
	}

	if !allowAlias {
		return table
	}

	// Optional alias
	if p.match(TOKEN_AS) {
		if identLike(p.token) {
			table.Alias = p.token.Literal
			p.nextToken()
		}
	} else if identLike(p.token) && !p.isJoinKeyword(p.token) && !p.isClauseKeyword(p.token) {
		table.Alias = p.token.Literal
		p.nextToken()
	}

	return table
}

// parseDerivedTable parses a derived table (subquery in FROM).
func (p *Parser) parseDerivedTable() *DerivedTable {
	p.expect(TOKEN_LPAREN)
	derived := &DerivedTable{}
	derived.Select = p.parseSelectStmt()
	p.expect(TOKEN_RPAREN)

	// Alias (optional: ClickHouse allows anonymous subqueries)
	if p.match(TOKEN_AS) {
		if identLike(p.token) {
			derived.Alias = p.token.Literal
			p.nextToken()
		}
	} else if identLike(p.token) {
		derived.Alias = p.token.Literal
		p.nextToken()
	}

	return derived
}

// parseLateralView parses a Spark LATERAL VIEW clause.
func (p *Parser) parseLateralView() *LateralView {
	lv := &LateralView{}
	p.expect(TOKEN_LATERAL)
	p.expect(dialect.TokenView)

	if p.match(TOKEN_OUTER) {
		lv.Outer = true
	}

	if !identLike(p.token) {
		p.addError("expected generator function in LATERAL VIEW")
		return lv
	}
	name := p.token.Literal
	p.nextToken()
	if fc, ok := p.parseFuncCall(name).(*FuncCall); ok {
		lv.Func = fc
	}

	// Optional table alias before AS
	if identLike(p.token) {
		lv.TableAlias = p.token.Literal
		p.nextToken()
	}

	p.expect(TOKEN_AS)
	for {
		if !identLike(p.token) {
			p.addError("expected column alias in LATERAL VIEW")
			break
		}
		lv.ColumnAliases = append(lv.ColumnAliases, p.token.Literal)
		p.nextToken()
		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return lv
}

// parseJoin parses a JOIN clause. Returns nil when the current token does
// not start a join.
func (p *Parser) parseJoin() *Join {
	join := &Join{}

	// Comma join (implicit cross join)
	if p.match(TOKEN_COMMA) {
		join.Type = JoinComma
		join.Right = p.parseTableRef()
		return join
	}

	switch p.token.Type {
	case TOKEN_LEFT:
		join.Type = JoinLeft
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_RIGHT:
		join.Type = JoinRight
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_FULL:
		join.Type = JoinFull
		p.nextToken()
		p.match(TOKEN_OUTER)
	case TOKEN_CROSS:
		join.Type = JoinCross
		p.nextToken()
	case TOKEN_INNER:
		join.Type = JoinInner
		p.nextToken()
	case TOKEN_JOIN:
		// Plain JOIN = INNER JOIN
		join.Type = JoinInner
	default:
		return nil // no join
	}

	if !p.expect(TOKEN_JOIN) {
		return nil
	}

	join.Right = p.parseTableRef()
	p.parseJoinCondition(join)
	return join
}

// parseJoinCondition handles the ON / USING clause.
func (p *Parser) parseJoinCondition(join *Join) {
	switch {
	case p.match(TOKEN_ON):
		join.Condition = p.parseExpression()
	case p.match(TOKEN_USING):
		join.Using = p.parseUsingColumns()
	}
}

// parseUsingColumns parses the column list in USING (col1, col2, ...).
func (p *Parser) parseUsingColumns() []string {
	p.expect(TOKEN_LPAREN)
	var cols []string
	for {
		if !identLike(p.token) {
			p.addError("expected column name in USING clause")
			break
		}
		cols = append(cols, p.token.Literal)
		p.nextToken()
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	p.expect(TOKEN_RPAREN)
	return cols
}
