package graph_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/lineage/internal/testutil"
	"github.com/leapstack-labs/lineage/pkg/analyzer"
	"github.com/leapstack-labs/lineage/pkg/graph"

	_ "github.com/leapstack-labs/lineage/pkg/dialects/clickhouse"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/postgres"
)

const chainingSQL = `CREATE TABLE analytics.result_table AS
WITH base AS (
    SELECT u.id, o.total, o.discount
    FROM core.users AS u
    JOIN core.orders AS o ON u.id = o.user_id
),
enriched AS (
    SELECT id, total - discount AS net FROM base
)
SELECT id AS user_id, net FROM enriched`

func build(t *testing.T, sql, dialect string, mode graph.Mode) *graph.Graph {
	t.Helper()
	g, err := graph.Build(context.Background(), sql, graph.Options{
		Dialect: dialect,
		Mode:    mode,
		Logger:  testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return g
}

func nodeByID(t *testing.T, g *graph.Graph, id string) *graph.Node {
	t.Helper()
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	require.Failf(t, "node not found", "no node with id %q", id)
	return nil
}

func nodeIDs(g *graph.Graph, nt graph.NodeType) []string {
	var ids []string
	for _, n := range g.Nodes {
		if n.Type == nt {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func edgesOfType(g *graph.Graph, et graph.EdgeType) []*graph.Edge {
	var edges []*graph.Edge
	for _, e := range g.Edges {
		if e.Type == et {
			edges = append(edges, e)
		}
	}
	return edges
}

func findEdge(g *graph.Graph, et graph.EdgeType, from, to string) *graph.Edge {
	for _, e := range g.Edges {
		if e.Type == et && e.From == from && e.To == to {
			return e
		}
	}
	return nil
}

func warningCodes(g *graph.Graph) []analyzer.IssueCode {
	codes := make([]analyzer.IssueCode, 0, len(g.Warnings))
	for _, w := range g.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

// ---------- Full Mode Tests ----------

func TestFullGraphTablesAndLineage(t *testing.T) {
	g := build(t, chainingSQL, "postgres", graph.ModeFull)

	tables := nodeIDs(g, graph.NodeTable)
	assert.Contains(t, tables, "table:core.users")
	assert.Contains(t, tables, "table:core.orders")
	assert.Contains(t, tables, "table:analytics.result_table")

	ctes := nodeIDs(g, graph.NodeCTE)
	assert.Contains(t, ctes, "cte:base")
	assert.Contains(t, ctes, "cte:enriched")

	// transitive attribution reaches the physical column
	assert.NotNil(t, findEdge(g, graph.EdgeLineage,
		"column:core.users.id", "column:analytics.result_table.user_id"))
	// the intermediate hops stay visible under their own prefixes
	assert.NotNil(t, findEdge(g, graph.EdgeLineage,
		"column:cte.enriched.id", "column:analytics.result_table.user_id"))

	for _, n := range g.Nodes {
		assert.NotEmpty(t, n.Description, "node %s has no description", n.ID)
	}
	for _, e := range g.Edges {
		assert.NotEmpty(t, e.Description, "edge %s has no description", e.ID)
	}
	assert.Empty(t, g.Errors)
}

func TestFullGraphExpressionNodes(t *testing.T) {
	g := build(t, "SELECT coalesce(o.discount, 0) AS d FROM core.orders AS o", "postgres", graph.ModeFull)

	var expr *graph.Node
	for _, n := range g.Nodes {
		if n.Type == graph.NodeExpression {
			expr = n
		}
	}
	require.NotNil(t, expr)
	assert.Equal(t, "coalesce(o.discount, 0) AS d", expr.SQL)

	produces := findEdge(g, graph.EdgeProduces, expr.ID, "column:unknown.d")
	require.NotNil(t, produces)
	assert.Equal(t, "function", produces.Details["function"])

	assert.NotNil(t, findEdge(g, graph.EdgeUses, "column:core.orders.discount", expr.ID))
	assert.NotNil(t, findEdge(g, graph.EdgeLineage, "column:core.orders.discount", "column:unknown.d"))

	target := nodeByID(t, g, "table:unknown")
	assert.True(t, target.Unknown)
	assert.Equal(t, "Unknown target table", target.Description)

	d := nodeByID(t, g, "column:unknown.d")
	assert.Equal(t, []string{"0"}, d.Literals)
}

func TestFullGraphPlainRenameHasNoExpressionNode(t *testing.T) {
	g := build(t, "SELECT u.id AS user_id FROM core.users AS u", "postgres", graph.ModeFull)

	assert.Empty(t, nodeIDs(g, graph.NodeExpression))
	assert.Empty(t, edgesOfType(g, graph.EdgeProduces))
	assert.NotNil(t, findEdge(g, graph.EdgeLineage, "column:core.users.id", "column:unknown.user_id"))
}

func TestFullGraphJoinEdges(t *testing.T) {
	sql := "SELECT u.id FROM core.users AS u LEFT JOIN core.orders AS o ON u.id = o.user_id"
	g := build(t, sql, "postgres", graph.ModeFull)

	joins := edgesOfType(g, graph.EdgeJoinsWith)
	require.Len(t, joins, 1)
	assert.Equal(t, "table:core.users", joins[0].From)
	assert.Equal(t, "table:core.orders", joins[0].To)
	assert.Equal(t, "left", joins[0].Details["join_type"])
	assert.Equal(t, "u.id = o.user_id", joins[0].Details["join_condition"])
}

func TestFullGraphUnionEdges(t *testing.T) {
	sql := `CREATE TABLE analytics.union_table AS
SELECT id, name FROM core.users
UNION ALL
SELECT user_id, status FROM core.orders`
	g := build(t, sql, "postgres", graph.ModeFull)

	unions := edgesOfType(g, graph.EdgeUnionWith)
	require.Len(t, unions, 2)
	assert.Equal(t, "table:core.users", unions[0].From)
	assert.Equal(t, "table:core.orders", unions[1].From)
	for _, e := range unions {
		assert.Equal(t, "table:analytics.union_table", e.To)
		assert.Equal(t, "union", e.Details["union_type"])
	}
}

func TestFullGraphSubqueryNodes(t *testing.T) {
	sql := "SELECT t.user_id FROM (SELECT u.id AS user_id FROM core.users AS u) AS t"
	g := build(t, sql, "postgres", graph.ModeFull)

	sub := nodeByID(t, g, "subquery:0:1")
	assert.Equal(t, graph.NodeSubquery, sub.Type)
	assert.Equal(t, "t", sub.Name)

	assert.NotNil(t, findEdge(g, graph.EdgeLineage,
		"column:subquery:0:1.user_id", "column:unknown.user_id"))
	assert.NotNil(t, findEdge(g, graph.EdgeLineage,
		"column:core.users.id", "column:unknown.user_id"))
}

func TestFullGraphFlagsUnknownTables(t *testing.T) {
	g := build(t, "SELECT a FROM t", "clickhouse", graph.ModeFull)

	node := nodeByID(t, g, "table:t")
	assert.True(t, node.Unknown)
	assert.Contains(t, warningCodes(g), analyzer.IssueUnknownTable)
	assert.Empty(t, g.Errors)
}

// ---------- ER Columns Mode Tests ----------

func TestERColumnsGraph(t *testing.T) {
	sql := `CREATE TABLE reporting.user_orders AS
SELECT u.id AS user_id, coalesce(o.status, 'none') AS label
FROM core.users AS u
LEFT JOIN core.orders AS o ON u.id = o.user_id`
	g := build(t, sql, "mysql", graph.ModeERColumns)

	assert.Empty(t, edgesOfType(g, graph.EdgeContains))
	assert.Empty(t, nodeIDs(g, graph.NodeExpression))

	lineage := findEdge(g, graph.EdgeColLineage,
		"column:core.orders.status", "column:reporting.user_orders.label")
	require.NotNil(t, lineage)
	assert.Equal(t, "function", lineage.Details["how"])
	assert.Equal(t, "coalesce(o.status, 'none') AS label", lineage.Details["expression_sql"])

	fk := findEdge(g, graph.EdgeFKLike,
		"column:core.users.id", "column:core.orders.user_id")
	require.NotNil(t, fk)
	assert.Equal(t, "join", fk.Details["how"])
	assert.Equal(t, "u.id = o.user_id", fk.Details["expression_sql"])

	target := nodeByID(t, g, "table:reporting.user_orders")
	assert.Equal(t, []string{"user_id", "label"}, target.Columns)
	orders := nodeByID(t, g, "table:core.orders")
	assert.Equal(t, []string{"status", "user_id"}, orders.Columns)
}

func TestERColumnsLiteralsOnOutputColumns(t *testing.T) {
	g := build(t, "SELECT 'fixed' AS status FROM core.users", "postgres", graph.ModeERColumns)

	status := nodeByID(t, g, "column:unknown.status")
	assert.Equal(t, []string{"fixed"}, status.Literals)
	assert.Empty(t, edgesOfType(g, graph.EdgeColLineage))
}

// ---------- Tables Only Mode Tests ----------

func TestTablesOnlyGraph(t *testing.T) {
	sql := `CREATE TABLE analytics.ch_result AS
SELECT u.id AS user_id, o.region AS region, count(o.order_id) AS orders
FROM core.users AS u
LEFT JOIN core.orders AS o ON u.id = o.user_id`
	g := build(t, sql, "clickhouse", graph.ModeTablesOnly)

	for _, n := range g.Nodes {
		assert.Equal(t, graph.NodeTable, n.Type)
	}

	users := findEdge(g, graph.EdgeTableLineage, "table:core.users", "table:analytics.ch_result")
	require.NotNil(t, users)
	assert.Equal(t, 1, users.Details["columns_count"])
	assert.Equal(t, []string{"alias"}, users.Details["via"])

	orders := findEdge(g, graph.EdgeTableLineage, "table:core.orders", "table:analytics.ch_result")
	require.NotNil(t, orders)
	assert.Equal(t, 2, orders.Details["columns_count"])
	assert.Equal(t, []string{"alias", "join_fanout"}, orders.Details["via"])
}

func TestTablesOnlySkipsStatementsWithoutTarget(t *testing.T) {
	sql := "SELECT u.id FROM core.users AS u"
	g := build(t, sql, "postgres", graph.ModeTablesOnly)

	assert.Empty(t, g.Edges)
	// the scanned table still shows up as a node
	assert.Contains(t, nodeIDs(g, graph.NodeTable), "table:core.users")
}

func TestTablesOnlyFlattensIntermediates(t *testing.T) {
	g := build(t, chainingSQL, "postgres", graph.ModeTablesOnly)

	assert.NotNil(t, findEdge(g, graph.EdgeTableLineage,
		"table:core.users", "table:analytics.result_table"))
	assert.NotNil(t, findEdge(g, graph.EdgeTableLineage,
		"table:core.orders", "table:analytics.result_table"))
	for _, n := range g.Nodes {
		assert.Equal(t, graph.NodeTable, n.Type)
	}
}

// ---------- Build Behavior Tests ----------

func TestBuildUnsupportedModeFallsBackToFull(t *testing.T) {
	g := build(t, "SELECT u.id FROM core.users AS u", "postgres", graph.Mode("bogus"))

	assert.Equal(t, graph.ModeFull, g.Mode)
	assert.Contains(t, g.Errors, "Unsupported graph mode: bogus")
	assert.Contains(t, warningCodes(g), analyzer.IssueUnsupportedExport)
	assert.NotEmpty(t, g.Nodes)
}

func TestBuildDefaultsToFullMode(t *testing.T) {
	g := build(t, "SELECT u.id FROM core.users AS u", "postgres", "")
	assert.Equal(t, graph.ModeFull, g.Mode)
	assert.Empty(t, g.Errors)
}

func TestBuildCollectsStatementErrors(t *testing.T) {
	sql := "SELECT id, name FROM core.users UNION ALL SELECT user_id FROM core.orders"
	g := build(t, sql, "postgres", graph.ModeFull)

	require.NotEmpty(t, g.Errors)
	assert.Contains(t, g.Errors[0], "arity")
	assert.Contains(t, warningCodes(g), analyzer.IssueArityMismatch)
}

func TestBuildPropagatesAnalysisFailure(t *testing.T) {
	_, err := graph.Build(context.Background(), "   ", graph.Options{Dialect: "postgres"})
	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrEmptyInput)
}

func TestGraphMeta(t *testing.T) {
	g := build(t, "SELECT u.id FROM core.users AS u; SELECT o.total FROM core.orders AS o", "postgres", graph.ModeFull)

	assert.Equal(t, 2, g.Meta.Statements)
	assert.Equal(t, "lineage", g.Meta.Library)
	assert.Equal(t, "0.2.0", g.Meta.Version)
	generated, err := time.Parse(time.RFC3339, g.Meta.GeneratedAt)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, generated.Location())
}

func TestBuildIsDeterministic(t *testing.T) {
	first := build(t, chainingSQL, "postgres", graph.ModeFull)
	second := build(t, chainingSQL, "postgres", graph.ModeFull)

	a, err := json.Marshal(first.Nodes)
	require.NoError(t, err)
	b, err := json.Marshal(second.Nodes)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	a, err = json.Marshal(first.Edges)
	require.NoError(t, err)
	b, err = json.Marshal(second.Edges)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestFromResultReusesAnalysis(t *testing.T) {
	res, err := analyzer.Analyze(context.Background(), chainingSQL, analyzer.Options{Dialect: "postgres"})
	require.NoError(t, err)

	full := graph.FromResult(res, graph.ModeFull)
	tables := graph.FromResult(res, graph.ModeTablesOnly)

	assert.Equal(t, graph.ModeFull, full.Mode)
	assert.Equal(t, graph.ModeTablesOnly, tables.Mode)
	assert.Equal(t, full.Meta.Statements, tables.Meta.Statements)
	assert.NotEmpty(t, full.Nodes)
	assert.NotEmpty(t, tables.Nodes)
}
