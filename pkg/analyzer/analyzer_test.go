package analyzer_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/lineage/internal/testutil"
	"github.com/leapstack-labs/lineage/pkg/analyzer"

	_ "github.com/leapstack-labs/lineage/pkg/dialects/clickhouse"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/spark"
)

func analyze(t *testing.T, sql, dialect string, catalog analyzer.Catalog) *analyzer.Result {
	t.Helper()
	res, err := analyzer.Analyze(context.Background(), sql, analyzer.Options{
		Dialect: dialect,
		Catalog: catalog,
		Logger:  testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Statements)
	return res
}

func analyzeOne(t *testing.T, sql, dialect string, catalog analyzer.Catalog) *analyzer.StatementResult {
	t.Helper()
	return analyze(t, sql, dialect, catalog).Statements[0]
}

func findColumn(t *testing.T, sr *analyzer.StatementResult, name string) analyzer.OutputColumn {
	t.Helper()
	for _, c := range sr.Columns {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "column not found", "no output column named %q in %v", name, sr.Columns)
	return analyzer.OutputColumn{}
}

// refKeys renders source refs as "table.column" strings for containment checks.
func refKeys(refs []analyzer.ColumnRef) []string {
	keys := make([]string, 0, len(refs))
	for _, r := range refs {
		keys = append(keys, r.TableName()+"."+r.Name)
	}
	return keys
}

func depTables(col analyzer.OutputColumn) []string {
	tables := make([]string, 0, len(col.Dependencies))
	for _, d := range col.Dependencies {
		tables = append(tables, d.Table)
	}
	return tables
}

func depColumns(t *testing.T, col analyzer.OutputColumn, table string) []string {
	t.Helper()
	for _, d := range col.Dependencies {
		if d.Table == table {
			return d.Columns
		}
	}
	require.Failf(t, "dependency not found", "no dependency on %q in %v", table, col.Dependencies)
	return nil
}

func issueCodes(res *analyzer.Result) []analyzer.IssueCode {
	codes := make([]analyzer.IssueCode, 0, len(res.Errors))
	for _, i := range res.Errors {
		codes = append(codes, i.Code)
	}
	return codes
}

// ---------- Output Column Tests ----------

func TestAnalyzeSimpleSelect(t *testing.T) {
	res := analyze(t, "SELECT u.id, u.name AS username FROM core.users AS u", "clickhouse", nil)
	sr := res.Statements[0]

	assert.Equal(t, analyzer.StatementSelect, sr.Type)
	assert.Nil(t, sr.Target)
	require.Len(t, sr.Sources, 1)
	assert.Equal(t, analyzer.TableKindPhysical, sr.Sources[0].Kind)
	assert.Equal(t, "core.users", sr.Sources[0].Name)
	assert.Equal(t, "u", sr.Sources[0].Alias)

	require.Len(t, sr.Columns, 2)
	id := sr.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "u.id", id.Expression)
	assert.Equal(t, analyzer.ReasonAlias, id.Lineage.Reason)
	require.Len(t, id.Lineage.Sources, 1)
	assert.Equal(t, "u", id.Lineage.Sources[0].TableName())
	assert.Equal(t, "id", id.Lineage.Sources[0].Name)

	username := sr.Columns[1]
	assert.Equal(t, "username", username.Name)
	assert.Equal(t, "u.name AS username", username.Expression)
	assert.Equal(t, []string{"name"}, depColumns(t, username, "core.users"))

	assert.Empty(t, res.Errors)
}

func TestAnalyzeLiteralColumn(t *testing.T) {
	sr := analyzeOne(t, "SELECT 'unknown' AS status, 42 AS answer", "clickhouse", nil)

	status := findColumn(t, sr, "status")
	assert.Equal(t, analyzer.ReasonLiteral, status.Lineage.Reason)
	assert.Empty(t, status.Lineage.Sources)
	assert.Equal(t, []string{"unknown"}, status.Lineage.Literals)
	assert.Empty(t, status.Dependencies)

	answer := findColumn(t, sr, "answer")
	assert.Equal(t, analyzer.ReasonLiteral, answer.Lineage.Reason)
	assert.Equal(t, []string{"42"}, answer.Lineage.Literals)
}

func TestAnalyzeExpressionColumn(t *testing.T) {
	sr := analyzeOne(t, "SELECT o.total - o.discount AS net FROM core.orders AS o", "postgres", nil)

	net := findColumn(t, sr, "net")
	assert.Equal(t, analyzer.ReasonExpression, net.Lineage.Reason)
	assert.Empty(t, net.Lineage.Functions)
	assert.ElementsMatch(t, []string{"o.total", "o.discount"}, refKeys(net.Lineage.Sources))
	assert.Equal(t, []string{"total", "discount"}, depColumns(t, net, "core.orders"))
}

func TestAnalyzeFunctionColumn(t *testing.T) {
	sr := analyzeOne(t, "SELECT coalesce(o.discount, 0) AS d FROM core.orders AS o", "postgres", nil)

	d := findColumn(t, sr, "d")
	assert.Equal(t, analyzer.ReasonFunction, d.Lineage.Reason)
	assert.Equal(t, []string{"coalesce"}, d.Lineage.Functions)
	assert.Equal(t, []string{"0"}, d.Lineage.Literals)
	assert.Equal(t, []string{"o.discount"}, refKeys(d.Lineage.Sources))
}

func TestAnalyzeFunctionSynonymRecordsBothSpellings(t *testing.T) {
	sr := analyzeOne(t, "SELECT ifNull(o.discount, 0) AS d FROM core.orders AS o", "clickhouse", nil)

	d := findColumn(t, sr, "d")
	assert.Equal(t, analyzer.ReasonFunction, d.Lineage.Reason)
	assert.Equal(t, []string{"coalesce", "ifnull"}, d.Lineage.Functions)
}

func TestAnalyzeUnnamedColumnUsesExpressionText(t *testing.T) {
	sr := analyzeOne(t, "SELECT count(*) FROM core.users", "clickhouse", nil)

	require.Len(t, sr.Columns, 1)
	col := sr.Columns[0]
	assert.Equal(t, "count(*)", col.Name)
	// no column feeds COUNT(*), so it cannot be a function mapping
	assert.Equal(t, analyzer.ReasonExpression, col.Lineage.Reason)
	assert.Equal(t, []string{"count"}, col.Lineage.Functions)
	assert.Empty(t, col.Lineage.Sources)
	// the scanned table is still a dependency, with no columns attributed
	assert.Empty(t, depColumns(t, col, "core.users"))
}

func TestAnalyzeCaseExpression(t *testing.T) {
	sr := analyzeOne(t,
		"SELECT CASE WHEN o.total > 100 THEN 'big' ELSE 'small' END AS bucket FROM core.orders AS o",
		"postgres", nil)

	bucket := findColumn(t, sr, "bucket")
	assert.Equal(t, analyzer.ReasonExpression, bucket.Lineage.Reason)
	assert.Equal(t, []string{"o.total"}, refKeys(bucket.Lineage.Sources))
	assert.ElementsMatch(t, []string{"100", "big", "small"}, bucket.Lineage.Literals)
}

func TestAnalyzeScalarSubquery(t *testing.T) {
	sr := analyzeOne(t,
		"SELECT u.id, (SELECT max(o.total) FROM core.orders AS o) AS max_total FROM core.users AS u",
		"postgres", nil)

	maxTotal := findColumn(t, sr, "max_total")
	assert.Equal(t, analyzer.ReasonExpression, maxTotal.Lineage.Reason)
	assert.Contains(t, refKeys(maxTotal.Lineage.Sources), "o.total")
	assert.Contains(t, maxTotal.Lineage.Notes, "scalar subquery")
	assert.Equal(t, []string{"total"}, depColumns(t, maxTotal, "core.orders"))

	// the subquery contributes to dependencies but not to the FROM list
	require.Len(t, sr.Sources, 1)
	assert.Equal(t, "core.users", sr.Sources[0].Name)
	assert.Empty(t, sr.Subqueries)
}

// ---------- Scope Resolution Tests ----------

func TestResolveUnqualifiedSingleSource(t *testing.T) {
	sr := analyzeOne(t, "SELECT name FROM core.users", "postgres", nil)

	name := findColumn(t, sr, "name")
	assert.Equal(t, []string{"core.users.name"}, refKeys(name.Lineage.Sources))
	assert.Empty(t, name.Lineage.Notes)
}

func TestResolveAmbiguousColumnPicksFirstBinding(t *testing.T) {
	res := analyze(t, "SELECT city FROM core.users AS u, core.addresses AS a", "mysql", nil)
	sr := res.Statements[0]

	city := findColumn(t, sr, "city")
	assert.Equal(t, []string{"u.city"}, refKeys(city.Lineage.Sources))
	assert.Contains(t, city.Lineage.Notes, "ambiguous column: city")
	assert.Contains(t, issueCodes(res), analyzer.IssueAmbiguousReference)

	// both scanned tables stay visible as dependencies
	assert.Equal(t, []string{"city"}, depColumns(t, city, "core.users"))
	assert.Empty(t, depColumns(t, city, "core.addresses"))
}

func TestResolveWithCatalogPrefersKnownSchema(t *testing.T) {
	catalog := analyzer.Catalog{
		"core.users":     {"id", "name"},
		"core.addresses": {"user_id", "city"},
	}
	res := analyze(t,
		"SELECT city, id FROM core.users AS u JOIN core.addresses AS a ON u.id = a.user_id",
		"postgres", catalog)
	sr := res.Statements[0]

	city := findColumn(t, sr, "city")
	assert.Equal(t, []string{"a.city"}, refKeys(city.Lineage.Sources))
	id := findColumn(t, sr, "id")
	assert.Equal(t, []string{"u.id"}, refKeys(id.Lineage.Sources))
	assert.NotContains(t, issueCodes(res), analyzer.IssueAmbiguousReference)
}

func TestResolveUnknownQualifierKeepsPlaceholder(t *testing.T) {
	res := analyze(t, "SELECT x.foo FROM core.users AS u", "postgres", nil)
	sr := res.Statements[0]

	foo := findColumn(t, sr, "foo")
	assert.Equal(t, []string{"x.foo"}, refKeys(foo.Lineage.Sources))
	assert.Contains(t, issueCodes(res), analyzer.IssueUnresolvedReference)

	// the placeholder survives into dependencies under its raw name
	assert.Contains(t, depTables(foo), "x")
	assert.Equal(t, []string{"foo"}, depColumns(t, foo, "x"))
}

func TestResolveUnresolvedColumnWithoutSources(t *testing.T) {
	res := analyze(t, "SELECT ghost", "postgres", nil)
	sr := res.Statements[0]

	ghost := findColumn(t, sr, "ghost")
	require.Len(t, ghost.Lineage.Sources, 1)
	assert.Equal(t, "", ghost.Lineage.Sources[0].TableName())
	assert.Contains(t, ghost.Lineage.Notes, "unresolved column: ghost")
	assert.Contains(t, issueCodes(res), analyzer.IssueUnresolvedReference)
	assert.Empty(t, ghost.Dependencies)
}

func TestUnqualifiedTableWithoutCatalogWarns(t *testing.T) {
	res := analyze(t, "SELECT a FROM t", "clickhouse", nil)
	sr := res.Statements[0]

	require.Contains(t, issueCodes(res), analyzer.IssueUnknownTable)
	a := findColumn(t, sr, "a")
	assert.Equal(t, []string{"t.a"}, refKeys(a.Lineage.Sources))
	assert.Equal(t, []string{"a"}, depColumns(t, a, "t"))
}

// ---------- CTE Tests ----------

func TestCTEChainingExpandsToPhysicalColumns(t *testing.T) {
	sql := `WITH base AS (
    SELECT u.id, o.total, o.discount
    FROM core.users AS u
    JOIN core.orders AS o ON u.id = o.user_id
),
enriched AS (
    SELECT id, total - discount AS net FROM base
)
SELECT id AS user_id, net FROM enriched`
	res := analyze(t, sql, "postgres", nil)
	sr := res.Statements[0]

	require.Len(t, sr.Sources, 2)
	assert.Equal(t, analyzer.TableKindCTE, sr.Sources[0].Kind)
	assert.Equal(t, "base", sr.Sources[0].Name)
	assert.Equal(t, "enriched", sr.Sources[1].Name)

	require.Len(t, sr.Joins, 1)
	assert.Equal(t, "inner", sr.Joins[0].Type)
	assert.Equal(t, "u.id = o.user_id", sr.Joins[0].Condition)

	userID := findColumn(t, sr, "user_id")
	keys := refKeys(userID.Lineage.Sources)
	assert.Contains(t, keys, "enriched.id")
	assert.Contains(t, keys, "base.id")
	assert.Contains(t, keys, "u.id")
	assert.Equal(t, []string{"id"}, depColumns(t, userID, "core.users"))

	net := findColumn(t, sr, "net")
	assert.Equal(t, []string{"total", "discount"}, depColumns(t, net, "core.orders"))
	// intermediates never surface as dependencies
	assert.NotContains(t, depTables(net), "base")
	assert.NotContains(t, depTables(net), "enriched")
}

func TestCTEVisibleInsideLaterCTE(t *testing.T) {
	sql := `WITH a AS (SELECT u.id FROM core.users AS u),
b AS (SELECT id FROM a)
SELECT id FROM b`
	sr := analyzeOne(t, sql, "postgres", nil)

	id := findColumn(t, sr, "id")
	keys := refKeys(id.Lineage.Sources)
	assert.Contains(t, keys, "b.id")
	assert.Contains(t, keys, "a.id")
	assert.Contains(t, keys, "u.id")
}

// ---------- Derived Table Tests ----------

func TestDerivedTableExpansion(t *testing.T) {
	sql := `SELECT t.user_id, t.region FROM (
    SELECT u.id AS user_id, o.region
    FROM core.users AS u
    LEFT JOIN core.orders AS o ON u.id = o.user_id
) AS t`
	sr := analyzeOne(t, sql, "clickhouse", nil)

	require.Len(t, sr.Sources, 1)
	assert.Equal(t, analyzer.TableKindSubquery, sr.Sources[0].Kind)
	assert.Equal(t, "t", sr.Sources[0].Name)
	assert.Equal(t, []string{"t"}, sr.Subqueries)

	// the join inside the derived table is still reported
	require.Len(t, sr.Joins, 1)
	assert.Equal(t, "left", sr.Joins[0].Type)
	assert.Equal(t, "core.orders", sr.Joins[0].Right.Name)

	userID := findColumn(t, sr, "user_id")
	keys := refKeys(userID.Lineage.Sources)
	assert.Contains(t, keys, "t.user_id")
	assert.Contains(t, keys, "u.id")
	assert.Equal(t, []string{"id"}, depColumns(t, userID, "core.users"))

	region := findColumn(t, sr, "region")
	assert.Equal(t, []string{"region"}, depColumns(t, region, "core.orders"))
}

func TestAnonymousDerivedTableGetsSyntheticName(t *testing.T) {
	sr := analyzeOne(t, "SELECT user_id FROM (SELECT id AS user_id FROM core.users)", "clickhouse", nil)

	assert.Equal(t, []string{"subquery_0_1"}, sr.Subqueries)
	userID := findColumn(t, sr, "user_id")
	assert.Contains(t, refKeys(userID.Lineage.Sources), "subquery_0_1.user_id")
	assert.Contains(t, refKeys(userID.Lineage.Sources), "core.users.id")
}

// ---------- Join Tests ----------

func TestJoinsRecordedWithConditions(t *testing.T) {
	sql := `SELECT u.id FROM core.users AS u
LEFT JOIN core.orders AS o ON u.id = o.user_id
JOIN core.addresses AS a USING (id)`
	sr := analyzeOne(t, sql, "postgres", nil)

	require.Len(t, sr.Joins, 2)
	assert.Equal(t, "left", sr.Joins[0].Type)
	assert.Equal(t, "core.orders", sr.Joins[0].Right.Name)
	assert.Equal(t, "o", sr.Joins[0].Right.Alias)
	assert.Equal(t, "u.id = o.user_id", sr.Joins[0].Condition)
	assert.Equal(t, "inner", sr.Joins[1].Type)
	assert.Equal(t, "USING (id)", sr.Joins[1].Condition)
}

func TestLeftJoinMarksNullSupplyingSide(t *testing.T) {
	sql := `SELECT u.id AS user_id, o.region AS region, count(o.order_id) AS orders
FROM core.users AS u
LEFT JOIN core.orders AS o ON u.id = o.user_id`
	sr := analyzeOne(t, sql, "clickhouse", nil)

	userID := findColumn(t, sr, "user_id")
	assert.Empty(t, userID.Lineage.Notes)

	region := findColumn(t, sr, "region")
	assert.Equal(t, analyzer.ReasonAlias, region.Lineage.Reason)
	assert.Contains(t, region.Lineage.Notes, "nullable (LEFT JOIN)")

	orders := findColumn(t, sr, "orders")
	assert.Equal(t, analyzer.ReasonJoinFanout, orders.Lineage.Reason)
	assert.Contains(t, orders.Lineage.Notes, "nullable (LEFT JOIN)")
}

func TestRightJoinMarksLeftSide(t *testing.T) {
	sql := "SELECT u.name FROM core.users AS u RIGHT JOIN core.orders AS o ON u.id = o.user_id"
	sr := analyzeOne(t, sql, "postgres", nil)

	name := findColumn(t, sr, "name")
	assert.Contains(t, name.Lineage.Notes, "nullable (RIGHT JOIN)")
}

func TestMixedSideExpressionNotMarkedNullable(t *testing.T) {
	sql := `SELECT u.id + o.total AS mixed FROM core.users AS u
LEFT JOIN core.orders AS o ON u.id = o.user_id`
	sr := analyzeOne(t, sql, "postgres", nil)

	mixed := findColumn(t, sr, "mixed")
	assert.Empty(t, mixed.Lineage.Notes)
}

// ---------- Set Operation Tests ----------

func TestUnionMergesBranchesPositionally(t *testing.T) {
	sql := "SELECT id, name FROM core.users UNION ALL SELECT user_id, status FROM core.orders"
	sr := analyzeOne(t, sql, "postgres", nil)

	assert.Equal(t, analyzer.StatementUnion, sr.Type)
	require.Len(t, sr.Unions, 2)
	assert.Equal(t, 0, sr.Unions[0].Index)
	assert.Equal(t, []string{"core.users"}, sr.Unions[0].Tables)
	assert.Equal(t, []string{"core.orders"}, sr.Unions[1].Tables)

	require.Len(t, sr.Columns, 2)
	id := sr.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, analyzer.ReasonUnion, id.Lineage.Reason)
	assert.ElementsMatch(t, []string{"core.users.id", "core.orders.user_id"}, refKeys(id.Lineage.Sources))
	assert.Empty(t, id.Lineage.Functions)
	assert.Empty(t, id.Lineage.Literals)

	assert.Equal(t, []string{"id"}, depColumns(t, id, "core.users"))
	assert.Equal(t, []string{"user_id"}, depColumns(t, id, "core.orders"))
}

func TestUnionArityMismatchMarksStatementUnresolved(t *testing.T) {
	sql := "SELECT id, name FROM core.users UNION ALL SELECT user_id FROM core.orders"
	res := analyze(t, sql, "postgres", nil)
	sr := res.Statements[0]

	assert.Empty(t, sr.Columns)
	require.NotEmpty(t, sr.Errors)
	assert.Contains(t, sr.Errors[0], "arity")
	assert.Contains(t, issueCodes(res), analyzer.IssueArityMismatch)
}

func TestChainedUnionFlattensBranches(t *testing.T) {
	sql := `SELECT id FROM core.a
UNION ALL SELECT id FROM core.b
UNION ALL SELECT id FROM core.c`
	sr := analyzeOne(t, sql, "postgres", nil)

	require.Len(t, sr.Unions, 3)
	assert.Equal(t, []string{"core.a"}, sr.Unions[0].Tables)
	assert.Equal(t, []string{"core.b"}, sr.Unions[1].Tables)
	assert.Equal(t, []string{"core.c"}, sr.Unions[2].Tables)

	id := sr.Columns[0]
	assert.Len(t, id.Lineage.Sources, 3)
	assert.Equal(t, analyzer.ReasonUnion, id.Lineage.Reason)
}

// ---------- Star Expansion Tests ----------

func TestStarWithoutCatalogStaysOpaque(t *testing.T) {
	sr := analyzeOne(t, "SELECT * FROM core.users", "clickhouse", nil)

	require.Len(t, sr.Columns, 1)
	star := sr.Columns[0]
	assert.Equal(t, "*", star.Name)
	assert.Equal(t, analyzer.ReasonExpression, star.Lineage.Reason)
	assert.Contains(t, star.Lineage.Notes, "unexpanded star")
	assert.Empty(t, star.Lineage.Sources)
	// the table still counts as a dependency of the opaque output
	assert.Contains(t, depTables(star), "core.users")
}

func TestStarExpandsWithCatalog(t *testing.T) {
	catalog := analyzer.Catalog{"core.users": {"id", "city"}}
	sr := analyzeOne(t, "SELECT * FROM core.users AS u", "postgres", catalog)

	require.Len(t, sr.Columns, 2)
	id := sr.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "u.id", id.Expression)
	assert.Equal(t, analyzer.ReasonAlias, id.Lineage.Reason)
	assert.Equal(t, []string{"id"}, depColumns(t, id, "core.users"))
	assert.Equal(t, "city", sr.Columns[1].Name)
}

func TestTableStarExpandsSingleBinding(t *testing.T) {
	catalog := analyzer.Catalog{"core.users": {"id", "name"}}
	sql := "SELECT u.*, o.status FROM core.users AS u JOIN core.orders AS o ON u.id = o.user_id"
	sr := analyzeOne(t, sql, "postgres", catalog)

	require.Len(t, sr.Columns, 3)
	assert.Equal(t, "id", sr.Columns[0].Name)
	assert.Equal(t, "name", sr.Columns[1].Name)
	assert.Equal(t, "status", sr.Columns[2].Name)
}

func TestStarOverCTEUsesResolvedOutputs(t *testing.T) {
	sql := "WITH c AS (SELECT u.id, u.name FROM core.users AS u) SELECT * FROM c"
	sr := analyzeOne(t, sql, "postgres", nil)

	require.Len(t, sr.Columns, 2)
	id := sr.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "c.id", id.Expression)
	assert.Equal(t, []string{"id"}, depColumns(t, id, "core.users"))
}

// ---------- Statement Chaining Tests ----------

func TestCreateTableAsRecordsTarget(t *testing.T) {
	sql := `CREATE TABLE analytics.ch_result ENGINE = MergeTree() ORDER BY user_id AS
SELECT u.id AS user_id FROM core.users AS u`
	sr := analyzeOne(t, sql, "clickhouse", nil)

	assert.Equal(t, analyzer.StatementCreateTableAs, sr.Type)
	require.NotNil(t, sr.Target)
	assert.Equal(t, "analytics", sr.Target.Database)
	assert.Equal(t, "ch_result", sr.Target.Name)
	assert.Equal(t, "analytics.ch_result", sr.Target.FullName())
}

func TestStatementChainingThroughVirtualTable(t *testing.T) {
	sql := `CREATE TABLE analytics.result_table AS
WITH base AS (
    SELECT u.id, o.total, o.discount
    FROM core.users AS u
    JOIN core.orders AS o ON u.id = o.user_id
),
enriched AS (
    SELECT id, total - discount AS net FROM base
)
SELECT id AS user_id, net FROM enriched;

CREATE TABLE analytics.summary_table AS
SELECT user_id, sum(net) AS sum_total
FROM analytics.result_table
GROUP BY user_id;`
	res := analyze(t, sql, "postgres", nil)
	require.Len(t, res.Statements, 2)

	second := res.Statements[1]
	require.Len(t, second.Sources, 1)
	assert.Equal(t, analyzer.TableKindVirtual, second.Sources[0].Kind)
	assert.Equal(t, "analytics.result_table", second.Sources[0].Name)

	sumTotal := findColumn(t, second, "sum_total")
	assert.Equal(t, analyzer.ReasonFunction, sumTotal.Lineage.Reason)
	assert.Contains(t, refKeys(sumTotal.Lineage.Sources), "analytics.result_table.net")

	// transitive closure reaches the physical columns and drops every
	// intermediate: no CTE, no virtual table
	assert.Equal(t, []string{"total", "discount"}, depColumns(t, sumTotal, "core.orders"))
	assert.NotContains(t, depTables(sumTotal), "analytics.result_table")
	assert.NotContains(t, depTables(sumTotal), "base")
	assert.NotContains(t, depTables(sumTotal), "enriched")
}

func TestVirtualTableReplacementWarnsAndLastWriteWins(t *testing.T) {
	sql := `CREATE TABLE core.x AS SELECT u.id AS a FROM core.users AS u;
CREATE TABLE core.x AS SELECT o.total AS b FROM core.orders AS o;
SELECT b FROM core.x;`
	res := analyze(t, sql, "postgres", nil)
	require.Len(t, res.Statements, 3)

	var replaced *analyzer.Issue
	for i := range res.Errors {
		if res.Errors[i].Code == analyzer.IssueVirtualTableReplaced {
			replaced = &res.Errors[i]
		}
	}
	require.NotNil(t, replaced)
	assert.Equal(t, 1, replaced.StatementIndex)
	assert.Equal(t, "core.x", replaced.Context["table"])

	b := findColumn(t, res.Statements[2], "b")
	assert.Equal(t, []string{"total"}, depColumns(t, b, "core.orders"))
}

// ---------- Lateral View Tests ----------

func TestLateralViewBindsGeneratorOutput(t *testing.T) {
	sql := `SELECT u.id, metrics.score AS score FROM dw.users AS u
LATERAL VIEW explode(u.items) metrics AS score`
	sr := analyzeOne(t, sql, "spark", nil)

	require.Len(t, sr.Sources, 2)
	assert.Equal(t, analyzer.TableKindPhysical, sr.Sources[0].Kind)
	assert.Equal(t, analyzer.TableKindSubquery, sr.Sources[1].Kind)
	assert.Equal(t, "metrics", sr.Sources[1].Name)

	score := findColumn(t, sr, "score")
	keys := refKeys(score.Lineage.Sources)
	assert.Contains(t, keys, "metrics.score")
	assert.Contains(t, keys, "u.items")
	assert.Equal(t, []string{"items"}, depColumns(t, score, "dw.users"))
}

func TestLateralViewUnknownQualifierKeepsPlaceholder(t *testing.T) {
	sql := `SELECT item.score AS s FROM dw.users AS u
LATERAL VIEW explode(u.items) metrics AS score`
	res := analyze(t, sql, "spark", nil)
	sr := res.Statements[0]

	assert.Contains(t, issueCodes(res), analyzer.IssueUnresolvedReference)
	s := findColumn(t, sr, "s")
	assert.Equal(t, []string{"item.score"}, refKeys(s.Lineage.Sources))
	assert.Contains(t, depTables(s), "item")
}

// ---------- Run Behavior Tests ----------

func TestMultipleStatementsKeepInputOrder(t *testing.T) {
	sql := "SELECT a.id FROM core.a AS a; SELECT b.val FROM core.b AS b"
	res := analyze(t, sql, "clickhouse", nil)

	require.Len(t, res.Statements, 2)
	assert.Equal(t, 0, res.Statements[0].Index)
	assert.Equal(t, 1, res.Statements[1].Index)
	assert.Equal(t, "core.a", res.Statements[0].Sources[0].Name)
	assert.Equal(t, "core.b", res.Statements[1].Sources[0].Name)
}

func TestParseFailureDoesNotAbortRun(t *testing.T) {
	sql := "SELECT u.id FROM core.users AS u; SELECT FROM"
	res := analyze(t, sql, "postgres", nil)

	require.Len(t, res.Statements, 2)
	assert.Empty(t, res.Statements[0].Errors)
	require.NotEmpty(t, res.Statements[1].Errors)
	assert.Contains(t, issueCodes(res), analyzer.IssueParseFailure)
}

func TestAllStatementsUnparseableIsFatal(t *testing.T) {
	_, err := analyzer.Analyze(context.Background(), "SELECT FROM", analyzer.Options{Dialect: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no statement could be parsed")
}

func TestEmptyInput(t *testing.T) {
	_, err := analyzer.Analyze(context.Background(), "  ;  ; ", analyzer.Options{})
	assert.ErrorIs(t, err, analyzer.ErrEmptyInput)
}

func TestUnknownDialect(t *testing.T) {
	_, err := analyzer.Analyze(context.Background(), "SELECT 1", analyzer.Options{Dialect: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown dialect")
}

func TestExpiredContextReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := analyzer.Analyze(ctx, "SELECT a FROM core.t; SELECT b FROM core.t", analyzer.Options{Dialect: "postgres"})
	require.NoError(t, err)
	require.Len(t, res.Statements, 2)
	for _, sr := range res.Statements {
		assert.Equal(t, []string{"unresolved: deadline"}, sr.Errors)
		assert.Empty(t, sr.Columns)
	}
}

func TestDefaultDialectIsClickhouse(t *testing.T) {
	res := analyze(t, "SELECT u.id FROM core.users AS u", "", nil)
	assert.Equal(t, "clickhouse", res.Dialect)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	sql := `CREATE TABLE analytics.result_table AS
WITH base AS (SELECT u.id, o.total FROM core.users AS u JOIN core.orders AS o ON u.id = o.user_id)
SELECT id, total FROM base;
SELECT id FROM analytics.result_table;`

	first, err := analyzer.Analyze(context.Background(), sql, analyzer.Options{Dialect: "postgres"})
	require.NoError(t, err)
	second, err := analyzer.Analyze(context.Background(), sql, analyzer.Options{Dialect: "postgres"})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

// ---------- Serialization Tests ----------

func TestColumnRefJSONShape(t *testing.T) {
	table := &analyzer.TableRef{Kind: analyzer.TableKindPhysical, Database: "core", Name: "users", Alias: "u"}

	aliased, err := json.Marshal(analyzer.ColumnRef{Table: table, Name: "id"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"table": "u", "column": "id"}`, string(aliased))

	unbound, err := json.Marshal(analyzer.ColumnRef{Name: "ghost"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"table": "", "column": "ghost"}`, string(unbound))
}

func TestStatementResultJSONKeys(t *testing.T) {
	sr := analyzeOne(t, "SELECT u.id FROM core.users AS u", "postgres", nil)
	raw, err := json.Marshal(sr)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "index")
	assert.Contains(t, decoded, "type")
	assert.Contains(t, decoded, "columns")
	assert.Contains(t, decoded, "sources")
	assert.NotContains(t, decoded, "target")
}

// ---------- Dialect Normalization Tests ----------

func TestMySQLFoldsIdentifierCase(t *testing.T) {
	sr := analyzeOne(t, "SELECT U.Name FROM Core.Users AS U", "mysql", nil)

	require.Len(t, sr.Sources, 1)
	assert.Equal(t, "core.users", sr.Sources[0].Name)
	assert.Equal(t, "u", sr.Sources[0].Alias)
	name := findColumn(t, sr, "name")
	assert.Equal(t, []string{"name"}, depColumns(t, name, "core.users"))
}

func TestClickHousePreservesIdentifierCase(t *testing.T) {
	sr := analyzeOne(t, "SELECT t.UserID FROM Analytics.Events AS t", "clickhouse", nil)

	assert.Equal(t, "Analytics.Events", sr.Sources[0].Name)
	userID := findColumn(t, sr, "UserID")
	assert.Equal(t, []string{"UserID"}, depColumns(t, userID, "Analytics.Events"))
}
