package graph

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// builder assembles nodes and edges with stable identifiers. Nodes are
// deduplicated by id with first-write-wins semantics; edge ids carry a
// per-type sequence number, so identical input yields identical output.
type builder struct {
	graph   *Graph
	nodes   map[string]*Node
	edgeSeq map[EdgeType]int

	// tables the analysis flagged as absent from the schema catalog
	unknownTables map[string]struct{}
}

func newBuilder(g *Graph, res *analyzer.Result) *builder {
	b := &builder{
		graph:         g,
		nodes:         make(map[string]*Node),
		edgeSeq:       make(map[EdgeType]int),
		unknownTables: make(map[string]struct{}),
	}
	for _, issue := range res.Errors {
		if issue.Code != analyzer.IssueUnknownTable {
			continue
		}
		if table := issue.Context["table"]; table != "" {
			b.unknownTables[table] = struct{}{}
		}
	}
	return b
}

func (b *builder) addNode(n *Node) {
	if _, ok := b.nodes[n.ID]; ok {
		return
	}
	b.nodes[n.ID] = n
	b.graph.Nodes = append(b.graph.Nodes, n)
}

func (b *builder) addEdge(t EdgeType, from, to, description string, stmt int, details map[string]any) {
	b.edgeSeq[t]++
	if details == nil {
		details = map[string]any{}
	}
	b.graph.Edges = append(b.graph.Edges, &Edge{
		ID:             fmt.Sprintf("edge:%s:%d", t, b.edgeSeq[t]),
		Type:           t,
		From:           from,
		To:             to,
		Description:    description,
		StatementIndex: stmt,
		Details:        details,
	})
}

// warn records a graph-level diagnostic. Context is supplied as alternating
// key/value pairs.
func (b *builder) warn(code analyzer.IssueCode, stmt int, msg string, kv ...string) {
	issue := analyzer.Issue{Code: code, Message: msg, StatementIndex: stmt}
	if len(kv) > 0 {
		issue.Context = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			issue.Context[kv[i]] = kv[i+1]
		}
	}
	b.graph.Warnings = append(b.graph.Warnings, issue)
}

func (b *builder) isUnknown(table string) bool {
	_, ok := b.unknownTables[table]
	return ok
}

// ---------- Node Identifiers ----------

func tableID(fullName string) string { return "table:" + fullName }

func cteID(name string) string { return "cte:" + name }

func subqueryID(stmt, n int) string {
	return fmt.Sprintf("subquery:%d:%d", stmt, n)
}

func columnID(table, column string) string {
	return "column:" + table + "." + column
}

// expressionID derives a stable id from the expression text so re-running
// the same input always names the node identically.
func expressionID(stmt int, output, expression string) string {
	sum := sha1.Sum([]byte(expression))
	return fmt.Sprintf("expr:%d:%s:%x", stmt, output, sum[:4])
}

func splitTableName(full string) (database, name string) {
	if i := strings.Index(full, "."); i >= 0 {
		return full[:i], full[i+1:]
	}
	return "", full
}

// subqueryIDs assigns node ids to a statement's derived tables, keyed by
// their resolved name. Positions are 1-based; the first occurrence of a
// name wins.
func subqueryIDs(sr *analyzer.StatementResult) map[string]string {
	ids := make(map[string]string, len(sr.Subqueries))
	for i, name := range sr.Subqueries {
		if _, ok := ids[name]; !ok {
			ids[name] = subqueryID(sr.Index, i+1)
		}
	}
	return ids
}

// ---------- Reference Resolution ----------

// relation identifies the graph endpoint a column reference belongs to: the
// table prefix used inside column node ids and the owning relation node.
type relation struct {
	columnTable string
	nodeID      string
	kind        NodeType
	name        string
	unknown     bool
}

// resolveRef maps a column reference onto its owning relation. References
// that never bound to a source land on a synthetic unknown table so no edge
// loses an endpoint.
func (b *builder) resolveRef(ref analyzer.ColumnRef, sq map[string]string, stmt int) relation {
	t := ref.Table
	switch {
	case t == nil:
		return relation{columnTable: "unknown", nodeID: tableID("unknown"), kind: NodeTable, name: "unknown", unknown: true}
	case t.Kind == analyzer.TableKindCTE:
		return relation{columnTable: "cte." + t.Name, nodeID: cteID(t.Name), kind: NodeCTE, name: t.Name}
	case t.Kind == analyzer.TableKindSubquery:
		id, ok := sq[t.Name]
		if !ok {
			id = fmt.Sprintf("subquery:%d:%s", stmt, t.Name)
		}
		return relation{columnTable: id, nodeID: id, kind: NodeSubquery, name: t.Name}
	case t.Kind == analyzer.TableKindUnknown:
		name := t.FullName()
		if name == "" {
			name = "unknown"
		}
		return relation{columnTable: name, nodeID: tableID(name), kind: NodeTable, name: name, unknown: true}
	default:
		full := t.FullName()
		return relation{columnTable: full, nodeID: tableID(full), kind: NodeTable, name: full, unknown: b.isUnknown(full)}
	}
}

// ensureRelationNode guarantees the owning relation node exists. Tables
// referenced only inside nested scopes never appear in a statement's
// source list, so edges materialize them on demand.
func (b *builder) ensureRelationNode(rel relation, stmt int) {
	if _, ok := b.nodes[rel.nodeID]; ok {
		return
	}
	switch rel.kind {
	case NodeCTE:
		b.addNode(&Node{
			ID:             rel.nodeID,
			Type:           NodeCTE,
			Name:           rel.name,
			StatementIndex: stmt,
			Description:    "Common table expression",
		})
	case NodeSubquery:
		b.addNode(&Node{
			ID:             rel.nodeID,
			Type:           NodeSubquery,
			Name:           rel.name,
			StatementIndex: stmt,
			Description:    "Subquery source",
		})
	default:
		db, name := splitTableName(rel.name)
		desc := "Source table"
		if rel.unknown {
			desc = "Unknown source"
		}
		b.addNode(&Node{
			ID:             rel.nodeID,
			Type:           NodeTable,
			Name:           name,
			Database:       db,
			FullName:       rel.name,
			Unknown:        rel.unknown,
			StatementIndex: stmt,
			Description:    desc,
		})
	}
}

// ensureColumnNode registers a column under its relation and returns the
// node id.
func (b *builder) ensureColumnNode(rel relation, column string, stmt int) string {
	id := columnID(rel.columnTable, column)
	b.addNode(&Node{
		ID:             id,
		Type:           NodeColumn,
		TableID:        rel.nodeID,
		Name:           column,
		StatementIndex: stmt,
		Description:    "Input column",
	})
	return id
}

// ---------- Statement Sources ----------

// addSourceNode registers a node for one statement source and returns its
// id. tablesOnly mode skips CTE and subquery relations entirely.
func (b *builder) addSourceNode(src analyzer.SourceInfo, sq map[string]string, stmt int, tablesOnly bool) string {
	switch src.Kind {
	case analyzer.TableKindCTE:
		if tablesOnly {
			return ""
		}
		id := cteID(src.Name)
		b.addNode(&Node{
			ID:             id,
			Type:           NodeCTE,
			Name:           src.Name,
			StatementIndex: stmt,
			Description:    "Common table expression",
		})
		return id
	case analyzer.TableKindSubquery:
		if tablesOnly {
			return ""
		}
		id, ok := sq[src.Name]
		if !ok {
			id = fmt.Sprintf("subquery:%d:%s", stmt, src.Name)
		}
		b.addNode(&Node{
			ID:             id,
			Type:           NodeSubquery,
			Name:           src.Name,
			StatementIndex: stmt,
			Description:    "Subquery source",
		})
		return id
	case analyzer.TableKindUnknown:
		name := src.Name
		if name == "" {
			name = "unknown"
		}
		id := tableID(name)
		b.addNode(&Node{
			ID:             id,
			Type:           NodeTable,
			Name:           name,
			FullName:       name,
			Unknown:        true,
			StatementIndex: stmt,
			Description:    "Unknown source",
		})
		return id
	default:
		db, name := splitTableName(src.Name)
		id := tableID(src.Name)
		b.addNode(&Node{
			ID:             id,
			Type:           NodeTable,
			Name:           name,
			Database:       db,
			FullName:       src.Name,
			Unknown:        b.isUnknown(src.Name),
			StatementIndex: stmt,
			Description:    "Source table",
		})
		return id
	}
}

func (b *builder) addSourceNodes(sr *analyzer.StatementResult, sq map[string]string, tablesOnly bool) {
	for _, src := range sr.Sources {
		b.addSourceNode(src, sq, sr.Index, tablesOnly)
	}
}

func (b *builder) addTargetNode(sr *analyzer.StatementResult) {
	if sr.Target == nil {
		return
	}
	full := sr.Target.FullName()
	b.addNode(&Node{
		ID:             tableID(full),
		Type:           NodeTable,
		Name:           sr.Target.Name,
		Database:       sr.Target.Database,
		FullName:       full,
		StatementIndex: sr.Index,
		Description:    "Target table",
	})
}

// targetTableFor returns the table name a statement's output columns attach
// to. A statement without a target gets a synthetic unknown table node.
func (b *builder) targetTableFor(sr *analyzer.StatementResult) string {
	if sr.Target != nil {
		return sr.Target.FullName()
	}
	b.addNode(&Node{
		ID:             tableID("unknown"),
		Type:           NodeTable,
		Name:           "unknown",
		FullName:       "unknown",
		Unknown:        true,
		StatementIndex: sr.Index,
		Description:    "Unknown target table",
	})
	return "unknown"
}
