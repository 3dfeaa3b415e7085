// Package graph assembles lineage graphs from SQL analysis results and
// renders them in several interchange formats. A graph is built in one of
// three modes: the full node set, a column-centric ER view, or an
// aggregated table-level view.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

const (
	libraryName    = "lineage"
	libraryVersion = "0.2.0"
)

// Mode selects how much structure a built graph carries.
type Mode string

// Graph modes.
const (
	// ModeFull emits one node per table, column, expression, CTE and
	// subquery touched by any statement.
	ModeFull Mode = "full"
	// ModeERColumns emits only table and column nodes, with column-level
	// lineage edges and FK-like edges derived from join conditions.
	ModeERColumns Mode = "er_columns"
	// ModeTablesOnly emits only table nodes, with all column lineage
	// between two tables aggregated into a single edge.
	ModeTablesOnly Mode = "tables_only"
)

// NodeType discriminates graph nodes.
type NodeType string

// Node types.
const (
	NodeTable      NodeType = "table"
	NodeCTE        NodeType = "cte"
	NodeSubquery   NodeType = "subquery"
	NodeColumn     NodeType = "column"
	NodeExpression NodeType = "expression"
)

// EdgeType discriminates graph edges.
type EdgeType string

// Edge types.
const (
	EdgeContains     EdgeType = "contains"      // table -> column
	EdgeProduces     EdgeType = "produces"      // expression -> output column
	EdgeLineage      EdgeType = "lineage"       // input column -> output column
	EdgeUses         EdgeType = "uses"          // input column -> expression
	EdgeJoinsWith    EdgeType = "joins_with"    // left relation -> joined relation
	EdgeUnionWith    EdgeType = "union_with"    // branch table -> target table
	EdgeColLineage   EdgeType = "col_lineage"   // column lineage in ER mode
	EdgeFKLike       EdgeType = "fk_like"       // key hint from a join predicate
	EdgeTableLineage EdgeType = "table_lineage" // aggregated table-level lineage
)

// Node is one vertex in a lineage graph. Fields beyond ID and Type are
// populated according to the node type: relations carry name and database,
// columns carry the owning relation's node id, expressions carry SQL text.
type Node struct {
	ID             string   `json:"id"`
	Type           NodeType `json:"type"`
	Name           string   `json:"name,omitempty"`
	Database       string   `json:"database,omitempty"`
	FullName       string   `json:"full_name,omitempty"`
	TableID        string   `json:"table_id,omitempty"`
	SQL            string   `json:"sql,omitempty"`
	Columns        []string `json:"columns,omitempty"`
	Literals       []string `json:"literals,omitempty"`
	Unknown        bool     `json:"unknown,omitempty"`
	StatementIndex int      `json:"statement_index"`
	Description    string   `json:"description"`
}

// Edge connects two nodes. Details carries edge-type specific facts such as
// join conditions or aggregated column counts.
type Edge struct {
	ID             string         `json:"id"`
	Type           EdgeType       `json:"type"`
	From           string         `json:"from"`
	To             string         `json:"to"`
	Description    string         `json:"description"`
	StatementIndex int            `json:"statement_index"`
	Details        map[string]any `json:"details"`
}

// Meta describes the run that produced a graph.
type Meta struct {
	Statements  int    `json:"statements"`
	GeneratedAt string `json:"generated_at"`
	Library     string `json:"library"`
	Version     string `json:"version"`
}

// Graph is the assembled lineage graph. Errors holds statement-local
// failures and mode/format fallbacks; Warnings carries every diagnostic the
// underlying analysis produced.
type Graph struct {
	Dialect  string           `json:"dialect"`
	Mode     Mode             `json:"mode"`
	Meta     Meta             `json:"meta"`
	Nodes    []*Node          `json:"nodes"`
	Edges    []*Edge          `json:"edges"`
	Errors   []string         `json:"errors"`
	Warnings []analyzer.Issue `json:"warnings"`
}

// Options configures Build.
type Options struct {
	// Dialect is the SQL dialect name (empty uses the analyzer default).
	Dialect string
	// Mode is the graph mode (empty uses ModeFull).
	Mode Mode
	// Catalog optionally supplies table schemas for star expansion.
	Catalog analyzer.Catalog
	// Logger for debug output (optional, uses discard if nil).
	Logger *slog.Logger
}

// Build analyzes sql and assembles a lineage graph in the requested mode.
// It fails only when the analysis itself cannot produce a result; every
// recoverable problem is recorded on the returned graph instead.
func Build(ctx context.Context, sql string, opts Options) (*Graph, error) {
	res, err := analyzer.Analyze(ctx, sql, analyzer.Options{
		Dialect: opts.Dialect,
		Catalog: opts.Catalog,
		Logger:  opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return FromResult(res, opts.Mode), nil
}

// FromResult assembles a graph from an existing analysis result. An
// unsupported mode records an error on the graph and falls back to ModeFull.
func FromResult(res *analyzer.Result, mode Mode) *Graph {
	normalized := Mode(strings.ToLower(strings.TrimSpace(string(mode))))
	if normalized == "" {
		normalized = ModeFull
	}
	g := &Graph{
		Dialect: res.Dialect,
		Mode:    normalized,
		Meta: Meta{
			Statements:  len(res.Statements),
			GeneratedAt: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
			Library:     libraryName,
			Version:     libraryVersion,
		},
		Nodes:    []*Node{},
		Edges:    []*Edge{},
		Errors:   []string{},
		Warnings: make([]analyzer.Issue, 0, len(res.Errors)),
	}
	g.Warnings = append(g.Warnings, res.Errors...)
	for _, sr := range res.Statements {
		g.Errors = append(g.Errors, sr.Errors...)
	}

	switch normalized {
	case ModeFull, ModeERColumns, ModeTablesOnly:
	default:
		msg := fmt.Sprintf("Unsupported graph mode: %s", mode)
		g.Errors = append(g.Errors, msg)
		g.Warnings = append(g.Warnings, analyzer.Issue{
			Code:           analyzer.IssueUnsupportedExport,
			Message:        msg,
			StatementIndex: -1,
			Context:        map[string]string{"mode": string(mode)},
		})
		normalized = ModeFull
		g.Mode = normalized
	}

	b := newBuilder(g, res)
	switch normalized {
	case ModeTablesOnly:
		b.buildTablesOnly(res)
	case ModeERColumns:
		b.buildERColumns(res)
	default:
		b.buildFull(res)
	}
	return g
}
