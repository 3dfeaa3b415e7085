package parser

import "github.com/leapstack-labs/lineage/pkg/dialect"

// Statement parsing: CREATE TABLE AS, WITH clause, CTEs, SELECT body,
// SELECT list, ORDER BY.
//
// Grammar:
//
//	statement     → create_table | select_stmt
//	create_table  → CREATE [OR REPLACE] TABLE [IF NOT EXISTS] table_name
//	                [engine_clause] [USING identifier] AS select_stmt
//	engine_clause → ENGINE "=" identifier ["(" expr_list ")"]
//	                (PARTITION BY expr | ORDER BY order_list)*
//	select_stmt   → [WITH [RECURSIVE] cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier AS "(" select_stmt ")"
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_core   → SELECT [DISTINCT|ALL] select_list
//	                [FROM from_clause] [WHERE expr]
//	                [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [AS identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]
//
// The ENGINE clause only parses when the active dialect registered the
// ENGINE keyword; its options carry no lineage so they are validated and
// discarded.

// parseStatement parses a complete SQL statement.
func (p *Parser) parseStatement() Statement {
	if p.check(TOKEN_CREATE) {
		return p.parseCreateTable()
	}
	return p.parseSelectStmt()
}

// parseSelectStmt parses a SELECT statement with optional WITH clause.
func (p *Parser) parseSelectStmt() *SelectStmt {
	stmt := &SelectStmt{}

	// Optional WITH clause
	if p.check(TOKEN_WITH) {
		stmt.With = p.parseWithClause()
	}

	// Required SELECT body
	stmt.Body = p.parseSelectBody()

	return stmt
}

// parseCreateTable parses CREATE [OR REPLACE] TABLE ... AS SELECT.
func (p *Parser) parseCreateTable() *CreateTableStmt {
	stmt := &CreateTableStmt{}
	p.expect(TOKEN_CREATE)

	if p.check(TOKEN_OR) {
		p.nextToken()
		p.expect(TOKEN_REPLACE)
		stmt.OrReplace = true
	}

	p.expect(TOKEN_TABLE)

	if p.check(TOKEN_IF) {
		p.nextToken()
		p.expect(TOKEN_NOT)
		p.expect(TOKEN_EXISTS)
		stmt.IfNotExists = true
	}

	stmt.Target = p.parseTableName(false)

	if p.check(dialect.TokenEngine) {
		p.parseEngineClause(stmt)
	}

	if p.match(TOKEN_USING) {
		if name, ok := p.parseIdentifier(); ok {
			stmt.Using = name
		}
	}

	p.expect(TOKEN_AS)
	stmt.Select = p.parseSelectStmt()

	return stmt
}

// parseEngineClause parses ENGINE = Name[(args)] plus the table options
// that follow it. Engine arguments and options do not contribute lineage,
// so everything but the engine name is discarded.
func (p *Parser) parseEngineClause(stmt *CreateTableStmt) {
	p.nextToken() // consume ENGINE
	p.expect(TOKEN_EQ)
	if name, ok := p.parseIdentifier(); ok {
		stmt.Engine = name
	}
	if p.match(TOKEN_LPAREN) {
		if !p.check(TOKEN_RPAREN) {
			p.parseExpressionList()
		}
		p.expect(TOKEN_RPAREN)
	}

	// PARTITION BY expr | ORDER BY order_list, in any order
	for {
		switch {
		case p.check(TOKEN_PARTITION):
			p.nextToken()
			p.expect(TOKEN_BY)
			p.parseEngineExpr()
		case p.check(TOKEN_ORDER):
			p.nextToken()
			p.expect(TOKEN_BY)
			p.parseEngineExpr()
		default:
			return
		}
	}
}

// parseEngineExpr parses a single table-option expression, which may be a
// bare expression list or a parenthesized tuple like ORDER BY (user_id, ts).
func (p *Parser) parseEngineExpr() {
	if p.match(TOKEN_LPAREN) {
		if !p.check(TOKEN_RPAREN) {
			p.parseExpressionList()
		}
		p.expect(TOKEN_RPAREN)
		return
	}
	p.parseExpressionList()
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(TOKEN_WITH)
	with := &WithClause{}

	// Optional RECURSIVE
	if p.match(TOKEN_RECURSIVE) {
		with.Recursive = true
	}

	// Parse CTE list
	for {
		cte := p.parseCTE()
		with.CTEs = append(with.CTEs, cte)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}

	if !identLike(p.token) {
		p.addError("expected CTE name")
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	// AS
	p.expect(TOKEN_AS)

	// ( SelectStatement )
	p.expect(TOKEN_LPAREN)
	cte.Select = p.parseSelectStmt()
	p.expect(TOKEN_RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *SelectBody {
	body := &SelectBody{}
	body.Left = p.parseSelectCore()

	// Check for set operations
	if p.check(TOKEN_UNION) || p.check(TOKEN_INTERSECT) || p.check(TOKEN_EXCEPT) {
		switch p.token.Type {
		case TOKEN_UNION:
			p.nextToken()
			if p.match(TOKEN_ALL) {
				body.Op = SetOpUnionAll
				body.All = true
			} else {
				body.Op = SetOpUnion
				p.match(TOKEN_DISTINCT) // optional
			}
		case TOKEN_INTERSECT:
			p.nextToken()
			body.Op = SetOpIntersect
			p.match(TOKEN_ALL) // optional
		case TOKEN_EXCEPT:
			p.nextToken()
			body.Op = SetOpExcept
			p.match(TOKEN_ALL) // optional
		}

		// Parse the right side (recursively for chained operations)
		body.Right = p.parseSelectBody()
	}

	return body
}

// parseSelectCore parses a single SELECT clause.
func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(TOKEN_SELECT)
	core := &SelectCore{}

	// DISTINCT / ALL
	if p.match(TOKEN_DISTINCT) {
		core.Distinct = true
	} else {
		p.match(TOKEN_ALL) // optional, consume if present
	}

	// SELECT list
	core.Columns = p.parseSelectList()

	// FROM clause (optional: SELECT 1 is valid)
	if p.match(TOKEN_FROM) {
		core.From = p.parseFromClause()
	}

	if p.match(TOKEN_WHERE) {
		core.Where = p.parseExpression()
	}

	if p.check(TOKEN_GROUP) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.GroupBy = p.parseExpressionList()
	}

	if p.match(TOKEN_HAVING) {
		core.Having = p.parseExpression()
	}

	if p.check(TOKEN_ORDER) {
		p.nextToken()
		p.expect(TOKEN_BY)
		core.OrderBy = p.parseOrderByList()
	}

	if p.match(TOKEN_LIMIT) {
		core.Limit = p.parseExpression()
	}

	if p.match(TOKEN_OFFSET) {
		core.Offset = p.parseExpression()
	}

	return core
}

// parseSelectList parses the list of SELECT items.
func (p *Parser) parseSelectList() []SelectItem {
	var items []SelectItem

	for {
		item := p.parseSelectItem()
		items = append(items, item)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() SelectItem {
	item := SelectItem{}

	// Check for * or table.*
	if p.check(TOKEN_STAR) {
		item.Star = true
		p.nextToken()
		return item
	}

	// Check for table.* pattern using 3-token lookahead (no rollback needed)
	if identLike(p.token) && p.checkPeek(TOKEN_DOT) && p.checkPeek2(TOKEN_STAR) {
		tableName := p.token.Literal
		p.nextToken() // consume identifier
		p.nextToken() // consume DOT
		p.nextToken() // consume STAR
		item.TableStar = tableName
		return item
	}

	// Regular expression
	item.Expr = p.parseExpression()

	// Optional alias
	if p.match(TOKEN_AS) {
		if identLike(p.token) {
			item.Alias = p.token.Literal
			p.nextToken()
		} else {
			p.addError("expected alias after AS")
		}
	} else if p.check(TOKEN_IDENT) && !p.isKeyword(p.token) {
		// Alias without AS
		item.Alias = p.token.Literal
		p.nextToken()
	}

	return item
}

// parseOrderByList parses a list of ORDER BY items.
func (p *Parser) parseOrderByList() []OrderByItem {
	var items []OrderByItem

	for {
		item := p.parseOrderByItem()
		items = append(items, item)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return items
}

// parseOrderByItem parses a single ORDER BY item.
func (p *Parser) parseOrderByItem() OrderByItem {
	item := OrderByItem{}
	item.Expr = p.parseExpression()

	// ASC / DESC
	if p.match(TOKEN_ASC) {
		item.Desc = false
	} else if p.match(TOKEN_DESC) {
		item.Desc = true
	}

	// NULLS FIRST / LAST
	if p.match(TOKEN_NULLS) {
		if p.match(TOKEN_FIRST) {
			b := true
			item.NullsFirst = &b
		} else if p.match(TOKEN_LAST) {
			b := false
			item.NullsFirst = &b
		}
	}

	return item
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []Expr {
	var exprs []Expr

	for {
		expr := p.parseExpression()
		exprs = append(exprs, expr)

		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	return exprs
}
