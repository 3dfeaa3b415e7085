package analyzer

import "encoding/json"

// TableKind classifies a table entity seen during analysis.
type TableKind string

// TableKind values. Physical tables serialize as "table" so downstream
// consumers see the same vocabulary the graph builder uses.
const (
	TableKindPhysical TableKind = "table"
	TableKindCTE      TableKind = "cte"
	TableKindSubquery TableKind = "subquery"
	TableKindVirtual  TableKind = "virtual"
	TableKindUnknown  TableKind = "unknown"
)

// TableRef identifies one table entity: a physical table, a CTE, a derived
// table, a virtual table produced by an earlier statement, or an unknown
// placeholder created when resolution fails. Unknown refs are never promoted
// to another kind afterward.
type TableRef struct {
	Kind     TableKind
	Database string
	Name     string
	Alias    string

	// OutputOrder and OutputInputs describe the relation's own output
	// columns when it is a CTE, derived table, or virtual table. Inputs are
	// stored fully expanded, so referencing statements inherit transitive
	// lineage with a single lookup.
	OutputOrder  []string
	OutputInputs map[string][]ColumnRef
}

// FullName returns "database.name", or just the name when unqualified.
func (t *TableRef) FullName() string {
	if t.Database == "" {
		return t.Name
	}
	return t.Database + "." + t.Name
}

// Identifier returns the name the relation is addressable by in a query:
// the alias when one is set, otherwise the full name.
func (t *TableRef) Identifier() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.FullName()
}

// Source converts the ref to its wire form. The alias is omitted when it
// adds nothing over the name.
func (t *TableRef) Source() SourceInfo {
	s := SourceInfo{Kind: t.Kind, Name: t.FullName()}
	if t.Alias != "" && t.Alias != t.Name {
		s.Alias = t.Alias
	}
	return s
}

// ColumnRef points at a column of a specific table entity. Table is nil when
// an unqualified column could not be bound to any source.
type ColumnRef struct {
	Table *TableRef
	Name  string
}

// TableName returns the serialized table identity for the ref: the binding
// alias when one exists, the full table name otherwise, empty when unbound.
func (c ColumnRef) TableName() string {
	if c.Table == nil {
		return ""
	}
	return c.Table.Identifier()
}

// key is the dedupe identity: two refs are the same column when their table
// identity and column name match.
func (c ColumnRef) key() string {
	return c.TableName() + "\x00" + c.Name
}

// MarshalJSON flattens the ref to {"table": ..., "column": ...}.
func (c ColumnRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Table  string `json:"table"`
		Column string `json:"column"`
	}{Table: c.TableName(), Column: c.Name})
}

// Reason classifies why an output column maps to its sources.
type Reason string

// Reason values.
const (
	// ReasonAlias marks a bare column reference, possibly renamed.
	ReasonAlias Reason = "alias"
	// ReasonExpression marks operators or constructs combining values.
	ReasonExpression Reason = "expression"
	// ReasonFunction marks a function call over at least one column.
	ReasonFunction Reason = "function"
	// ReasonLiteral marks a constant output with no column sources.
	ReasonLiteral Reason = "literal"
	// ReasonUnion marks a positional merge of set-operation branches.
	ReasonUnion Reason = "union"
	// ReasonJoinFanout marks an aggregate drawn entirely from the
	// null-supplying side of an outer join.
	ReasonJoinFanout Reason = "join_fanout"
)

// LineageMapping records how one output column derives from source columns.
// When Sources is empty the reason is always literal or expression.
type LineageMapping struct {
	OutputColumn string      `json:"output_column"`
	Sources      []ColumnRef `json:"sources"`
	Reason       Reason      `json:"reason"`
	Functions    []string    `json:"functions,omitempty"`
	Literals     []string    `json:"literals,omitempty"`
	Notes        []string    `json:"notes,omitempty"`
}

// Dependency aggregates the source-table columns one output column needs.
// Only physical and unknown tables appear here; CTE, subquery, and virtual
// intermediates are flattened through.
type Dependency struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// OutputColumn is one column produced by a statement.
type OutputColumn struct {
	Name         string         `json:"name"`
	Expression   string         `json:"expression"`
	Lineage      LineageMapping `json:"lineage"`
	Dependencies []Dependency   `json:"dependencies"`
}

// Target names the table a CREATE TABLE ... AS statement writes to.
type Target struct {
	Database string `json:"database,omitempty"`
	Name     string `json:"name"`
}

// FullName returns "database.name", or just the name when unqualified.
func (t *Target) FullName() string {
	if t.Database == "" {
		return t.Name
	}
	return t.Database + "." + t.Name
}

// SourceInfo describes one relation a statement reads from.
type SourceInfo struct {
	Kind  TableKind `json:"type"`
	Name  string    `json:"name"`
	Alias string    `json:"alias,omitempty"`
}

// JoinInfo describes one join clause, including joins inside derived tables.
type JoinInfo struct {
	Type      string     `json:"join_type"`
	Right     SourceInfo `json:"right"`
	Condition string     `json:"condition,omitempty"`
}

// UnionBranch lists the tables feeding one branch of a set operation.
type UnionBranch struct {
	Index  int      `json:"index"`
	Tables []string `json:"tables"`
}

// StatementType is the statement kind reported per statement.
type StatementType string

// StatementType values. Set operations other than UNION are reported as
// union statements as well; their branches merge positionally the same way.
const (
	StatementSelect        StatementType = "select"
	StatementUnion         StatementType = "union"
	StatementCreateTableAs StatementType = "create_table_as"
)

// StatementResult holds everything resolved for one input statement.
type StatementResult struct {
	Index      int            `json:"index"`
	Type       StatementType  `json:"type"`
	Target     *Target        `json:"target,omitempty"`
	Columns    []OutputColumn `json:"columns"`
	Sources    []SourceInfo   `json:"sources"`
	Joins      []JoinInfo     `json:"joins,omitempty"`
	Unions     []UnionBranch  `json:"unions,omitempty"`
	Subqueries []string       `json:"subqueries,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

// Result is the full output of one analysis run.
type Result struct {
	Dialect    string             `json:"dialect"`
	Statements []*StatementResult `json:"statements"`
	Errors     []Issue            `json:"errors,omitempty"`
}

// Catalog maps fully qualified table names to their known columns. It is
// optional: without it star expressions stay unexpanded and unqualified
// column binding falls back to position heuristics.
type Catalog map[string][]string

// Columns looks up a table's columns by qualified name.
func (c Catalog) Columns(table string) ([]string, bool) {
	cols, ok := c[table]
	return cols, ok
}
