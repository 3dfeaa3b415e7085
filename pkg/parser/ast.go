package parser

import "github.com/leapstack-labs/lineage/pkg/token"

// Statement represents a top-level SQL statement.
type Statement interface {
	stmtNode()
}

// Expr represents an expression in SQL.
type Expr interface {
	exprNode()
}

// TableRef represents a table reference in a FROM clause.
type TableRef interface {
	tableRefNode()
}

// ---------- Statement Types ----------

// SelectStmt represents a complete SELECT statement with optional WITH clause.
type SelectStmt struct {
	With *WithClause
	Body *SelectBody
}

func (*SelectStmt) stmtNode() {}

// CreateTableStmt represents CREATE TABLE ... AS SELECT.
// Dialect variants are folded in: ClickHouse ENGINE = X(...) with table
// options, Spark USING format, and the OR REPLACE / IF NOT EXISTS modifiers.
type CreateTableStmt struct {
	OrReplace   bool
	IfNotExists bool
	Target      *TableName
	Engine      string // ClickHouse: MergeTree, ReplacingMergeTree, ...
	Using       string // Spark: parquet, delta, ...
	Select      *SelectStmt
}

func (*CreateTableStmt) stmtNode() {}

// WithClause represents a WITH clause with CTEs.
type WithClause struct {
	Recursive bool
	CTEs      []*CTE
}

// CTE represents a Common Table Expression.
type CTE struct {
	Name   string
	Select *SelectStmt
}

// SelectBody represents the body of a SELECT with possible set operations.
type SelectBody struct {
	Left  *SelectCore
	Op    SetOpType   // UNION, INTERSECT, EXCEPT, or empty
	All   bool        // UNION ALL
	Right *SelectBody // For chained set operations
}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpType constants for set operations in queries.
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpUnionAll  SetOpType = "UNION ALL"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// SelectCore represents the core SELECT clause.
type SelectCore struct {
	Distinct bool
	Columns  []SelectItem
	From     *FromClause
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []OrderByItem
	Limit    Expr
	Offset   Expr
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	Star      bool   // SELECT *
	TableStar string // SELECT t.*
	Expr      Expr   // Expression
	Alias     string // AS alias
}

// FromClause represents the FROM clause.
type FromClause struct {
	Source       TableRef
	Joins        []*Join
	LateralViews []*LateralView
}

// Join represents a JOIN clause.
type Join struct {
	Type      JoinType
	Right     TableRef
	Condition Expr     // ON clause (mutually exclusive with Using)
	Using     []string // USING (col1, col2) columns
}

// JoinType represents the type of join. Values are lowercase so they can
// flow straight into lineage output.
type JoinType string

// JoinType constants.
const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinFull  JoinType = "full"
	JoinCross JoinType = "cross"
	JoinComma JoinType = "," // implicit cross join via comma syntax
)

// LateralView represents a Spark LATERAL VIEW clause. The generator call is
// exposed to the rest of the query as an extra source binding whose output
// columns are the column aliases.
type LateralView struct {
	Outer         bool
	Func          *FuncCall
	TableAlias    string
	ColumnAliases []string
}

// OrderByItem represents an item in ORDER BY clause.
type OrderByItem struct {
	Expr       Expr
	Desc       bool
	NullsFirst *bool // nil means default, true = NULLS FIRST, false = NULLS LAST
}

// ---------- Table Reference Types ----------

// TableName represents a (possibly qualified) table name reference.
// Multi-part qualifiers fold into Database: a.b.c keeps "a.b" as Database.
type TableName struct {
	Database string
	Name     string
	Alias    string
}

func (*TableName) tableRefNode() {}

// FullName returns "database.name", or just the name when unqualified.
func (t *TableName) FullName() string {
	if t.Database == "" {
		return t.Name
	}
	return t.Database + "." + t.Name
}

// DerivedTable represents a subquery in a FROM clause.
type DerivedTable struct {
	Select *SelectStmt
	Alias  string
}

func (*DerivedTable) tableRefNode() {}

// ---------- Expression Types ----------

// ColumnRef represents a column reference (possibly qualified).
type ColumnRef struct {
	Table  string // optional table/alias qualifier
	Column string
}

func (*ColumnRef) exprNode() {}

// Literal represents a literal value.
type Literal struct {
	Type  LiteralType
	Value string
}

func (*Literal) exprNode() {}

// LiteralType represents the type of a literal.
type LiteralType int

// LiteralType constants for SQL literal value types.
const (
	LiteralNumber LiteralType = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// BinaryExpr represents a binary expression.
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr represents a unary expression.
type UnaryExpr struct {
	Op   token.TokenType
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	Name     string // surface spelling as written in the SQL
	Distinct bool
	Args     []Expr
	Star     bool        // COUNT(*)
	Window   *WindowSpec // OVER clause
}

func (*FuncCall) exprNode() {}

// WindowSpec represents a window specification (OVER clause).
type WindowSpec struct {
	PartitionBy []Expr
	OrderBy     []OrderByItem
	Frame       *FrameSpec
}

// FrameSpec represents a window frame specification.
type FrameSpec struct {
	Type  FrameType
	Start *FrameBound
	End   *FrameBound
}

// FrameType represents the type of window frame.
type FrameType string

// FrameType constants for window frame specification types.
const (
	FrameRows  FrameType = "ROWS"
	FrameRange FrameType = "RANGE"
)

// FrameBound represents a window frame bound.
type FrameBound struct {
	Type   FrameBoundType
	Offset Expr // for N PRECEDING/FOLLOWING
}

// FrameBoundType represents the type of frame bound.
type FrameBoundType string

// FrameBoundType constants for window frame bound types.
const (
	FrameUnboundedPreceding FrameBoundType = "UNBOUNDED PRECEDING"
	FrameUnboundedFollowing FrameBoundType = "UNBOUNDED FOLLOWING"
	FrameCurrentRow         FrameBoundType = "CURRENT ROW"
	FrameExprPreceding      FrameBoundType = "EXPR PRECEDING"
	FrameExprFollowing      FrameBoundType = "EXPR FOLLOWING"
)

// CaseExpr represents a CASE expression.
type CaseExpr struct {
	Operand Expr // CASE operand WHEN... (optional)
	Whens   []WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause represents a WHEN clause in a CASE expression.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// CastExpr represents CAST(expr AS type) or the postfix expr::type form.
type CastExpr struct {
	Expr     Expr
	TypeName string
}

func (*CastExpr) exprNode() {}

// InExpr represents an IN expression.
type InExpr struct {
	Expr   Expr
	Not    bool
	Values []Expr      // IN (1, 2, 3)
	Query  *SelectStmt // IN (SELECT ...)
}

func (*InExpr) exprNode() {}

// BetweenExpr represents a BETWEEN expression.
type BetweenExpr struct {
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// IsNullExpr represents an IS [NOT] NULL expression.
type IsNullExpr struct {
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// IsBoolExpr represents an IS [NOT] TRUE/FALSE expression.
type IsBoolExpr struct {
	Expr  Expr
	Not   bool
	Value bool
}

func (*IsBoolExpr) exprNode() {}

// LikeExpr represents a LIKE or ILIKE expression.
type LikeExpr struct {
	Expr    Expr
	Not     bool
	Pattern Expr
	Op      token.TokenType // token.LIKE or dialect-registered ILIKE
}

func (*LikeExpr) exprNode() {}

// IndexExpr represents an array subscript: expr[index].
type IndexExpr struct {
	Expr  Expr
	Index Expr
}

func (*IndexExpr) exprNode() {}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// StarExpr represents a * expression (for SELECT *).
type StarExpr struct {
	Table string // optional table qualifier for t.*
}

func (*StarExpr) exprNode() {}

// SubqueryExpr represents a subquery used as a scalar expression.
type SubqueryExpr struct {
	Select *SelectStmt
}

func (*SubqueryExpr) exprNode() {}

// ExistsExpr represents an EXISTS expression.
type ExistsExpr struct {
	Not    bool
	Select *SelectStmt
}

func (*ExistsExpr) exprNode() {}
