package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/lineage/pkg/dialect"
	"github.com/leapstack-labs/lineage/pkg/dialects/clickhouse"
	"github.com/leapstack-labs/lineage/pkg/dialects/postgres"
	"github.com/leapstack-labs/lineage/pkg/parser"
)

// parseExpr parses a single expression via a wrapping SELECT.
func parseExpr(t *testing.T, expr string, d *dialect.Dialect) parser.Expr {
	t.Helper()
	sel := mustSelect(t, "SELECT "+expr+" FROM t", d)
	require.Len(t, sel.Body.Left.Columns, 1)
	return sel.Body.Left.Columns[0].Expr
}

func TestExprText(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    string
		dialect *dialect.Dialect
	}{
		{name: "column", expr: "id", want: "id"},
		{name: "qualified column", expr: "u.id", want: "u.id"},
		{name: "number", expr: "42", want: "42"},
		{name: "string", expr: "'hello'", want: "'hello'"},
		{name: "string requoted", expr: "'it''s'", want: "'it''s'"},
		{name: "boolean", expr: "TRUE", want: "TRUE"},
		{name: "null", expr: "NULL", want: "NULL"},
		{name: "arithmetic", expr: "a + b * c", want: "a + b * c"},
		{name: "angle inequality normalized", expr: "a <> b", want: "a != b"},
		{name: "concat", expr: "first_name || ' ' || last_name", want: "first_name || ' ' || last_name"},
		{name: "negation", expr: "-amount", want: "-amount"},
		{name: "not", expr: "NOT active", want: "NOT active"},
		{name: "parens", expr: "(a + b)", want: "(a + b)"},
		{name: "function", expr: "COALESCE(o.discount, 0)", want: "COALESCE(o.discount, 0)"},
		{name: "count star", expr: "COUNT(*)", want: "COUNT(*)"},
		{name: "count distinct", expr: "COUNT(DISTINCT user_id)", want: "COUNT(DISTINCT user_id)"},
		{
			name: "clickhouse surface spelling",
			expr: "ifNull(country, 'unknown')",
			want: "ifNull(country, 'unknown')",
			dialect: clickhouse.ClickHouse,
		},
		{
			name: "if call",
			expr: "if(age >= 18, 'adult', 'minor')",
			want: "if(age >= 18, 'adult', 'minor')",
			dialect: clickhouse.ClickHouse,
		},
		{
			name: "case",
			expr: "CASE WHEN age >= 18 THEN 'adult' ELSE 'minor' END",
			want: "CASE WHEN age >= 18 THEN 'adult' ELSE 'minor' END",
		},
		{
			name: "case with operand",
			expr: "CASE status WHEN 'a' THEN 1 ELSE 0 END",
			want: "CASE status WHEN 'a' THEN 1 ELSE 0 END",
		},
		{name: "cast", expr: "CAST(total AS Decimal(10, 2))", want: "CAST(total AS Decimal(10, 2))"},
		{
			name:    "postfix cast normalized",
			expr:    "total::numeric",
			want:    "CAST(total AS numeric)",
			dialect: postgres.Postgres,
		},
		{name: "in list", expr: "status IN ('a', 'b')", want: "status IN ('a', 'b')"},
		{name: "not in", expr: "id NOT IN (1, 2)", want: "id NOT IN (1, 2)"},
		{name: "in subquery", expr: "id IN (SELECT user_id FROM active)", want: "id IN (SELECT ...)"},
		{name: "between", expr: "age BETWEEN 18 AND 65", want: "age BETWEEN 18 AND 65"},
		{name: "like", expr: "name LIKE 'A%'", want: "name LIKE 'A%'"},
		{name: "not like", expr: "name NOT LIKE 'tmp%'", want: "name NOT LIKE 'tmp%'"},
		{
			name:    "ilike",
			expr:    "name ILIKE '%john%'",
			want:    "name ILIKE '%john%'",
			dialect: postgres.Postgres,
		},
		{name: "is null", expr: "deleted_at IS NULL", want: "deleted_at IS NULL"},
		{name: "is not null", expr: "email IS NOT NULL", want: "email IS NOT NULL"},
		{name: "is true", expr: "active IS TRUE", want: "active IS TRUE"},
		{name: "subscript", expr: "tags[1]", want: "tags[1]"},
		{name: "negative subscript", expr: "parts[-1]", want: "parts[-1]", dialect: clickhouse.ClickHouse},
		{name: "scalar subquery placeholder", expr: "(SELECT MAX(ts) FROM events)", want: "(SELECT ...)"},
		{name: "exists placeholder", expr: "EXISTS (SELECT 1 FROM orders)", want: "EXISTS (SELECT ...)"},
		{
			name: "window",
			expr: "SUM(amount) OVER (PARTITION BY customer_id ORDER BY order_date DESC)",
			want: "SUM(amount) OVER (PARTITION BY customer_id ORDER BY order_date DESC)",
		},
		{
			name: "window frame",
			expr: "SUM(amount) OVER (ORDER BY d ROWS BETWEEN 1 PRECEDING AND CURRENT ROW)",
			want: "SUM(amount) OVER (ORDER BY d ROWS BETWEEN 1 PRECEDING AND CURRENT ROW)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := parseExpr(t, tt.expr, tt.dialect)
			assert.Equal(t, tt.want, parser.ExprText(expr))
		})
	}
}

func TestSelectItemText(t *testing.T) {
	sel := mustSelect(t, "SELECT COALESCE(o.discount, 0) AS discount, u.id, *, o.* FROM t", nil)
	require.Len(t, sel.Body.Left.Columns, 4)

	assert.Equal(t, "COALESCE(o.discount, 0) AS discount", parser.SelectItemText(sel.Body.Left.Columns[0]))
	assert.Equal(t, "u.id", parser.SelectItemText(sel.Body.Left.Columns[1]))
	assert.Equal(t, "*", parser.SelectItemText(sel.Body.Left.Columns[2]))
	assert.Equal(t, "o.*", parser.SelectItemText(sel.Body.Left.Columns[3]))
}

func TestExprTextNil(t *testing.T) {
	assert.Equal(t, "", parser.ExprText(nil))
}
