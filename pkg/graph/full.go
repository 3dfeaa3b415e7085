package graph

import (
	"strings"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// buildFull emits the complete graph: tables, CTEs, subqueries, columns and
// expressions, linked by contains, produces, lineage, uses, joins_with and
// union_with edges.
func (b *builder) buildFull(res *analyzer.Result) {
	for _, sr := range res.Statements {
		sq := subqueryIDs(sr)
		b.addSourceNodes(sr, sq, false)
		b.addTargetNode(sr)
		for i, name := range sr.Subqueries {
			b.addNode(&Node{
				ID:             subqueryID(sr.Index, i+1),
				Type:           NodeSubquery,
				Name:           name,
				StatementIndex: sr.Index,
				Description:    "Subquery in statement",
			})
		}
		for _, col := range sr.Columns {
			b.addOutputColumn(sr, col, sq)
		}
		b.addJoinEdges(sr, sq)
		b.addUnionEdges(sr)
	}
}

// addOutputColumn emits the output column node, its expression node when the
// projection is more than a rename, and one lineage edge per input column.
func (b *builder) addOutputColumn(sr *analyzer.StatementResult, col analyzer.OutputColumn, sq map[string]string) {
	targetFull := b.targetTableFor(sr)
	outID := columnID(targetFull, col.Name)
	b.addNode(&Node{
		ID:             outID,
		Type:           NodeColumn,
		TableID:        tableID(targetFull),
		Name:           col.Name,
		Literals:       col.Lineage.Literals,
		StatementIndex: sr.Index,
		Description:    "Output column",
	})
	b.addEdge(EdgeContains, tableID(targetFull), outID, "Table contains column", sr.Index, nil)

	exprID := ""
	if requiresExpressionNode(col) {
		exprID = expressionID(sr.Index, col.Name, col.Expression)
		b.addNode(&Node{
			ID:             exprID,
			Type:           NodeExpression,
			SQL:            col.Expression,
			StatementIndex: sr.Index,
			Description:    "Expression producing output column",
		})
		b.addEdge(EdgeProduces, exprID, outID, "Expression produces output column", sr.Index, map[string]any{
			"function": string(col.Lineage.Reason),
		})
	}

	for _, ref := range col.Lineage.Sources {
		rel := b.resolveRef(ref, sq, sr.Index)
		b.ensureRelationNode(rel, sr.Index)
		inID := b.ensureColumnNode(rel, ref.Name, sr.Index)
		b.addEdge(EdgeContains, rel.nodeID, inID, "Table contains column", sr.Index, nil)
		b.addEdge(EdgeLineage, inID, outID, "Column-level lineage", sr.Index, map[string]any{
			"confidence": "explicit",
		})
		if exprID != "" {
			b.addEdge(EdgeUses, inID, exprID, "Expression uses column", sr.Index, map[string]any{
				"function": string(col.Lineage.Reason),
			})
		}
	}
}

// requiresExpressionNode reports whether an output column warrants a
// dedicated expression node. Plain renames never do; anything carrying
// functions, literals, a call or a CASE does.
func requiresExpressionNode(col analyzer.OutputColumn) bool {
	if col.Lineage.Reason == analyzer.ReasonAlias {
		return false
	}
	if len(col.Lineage.Functions) > 0 || len(col.Lineage.Literals) > 0 {
		return true
	}
	return strings.Contains(col.Expression, "(") ||
		strings.Contains(strings.ToUpper(col.Expression), "CASE")
}

// addJoinEdges links each joined relation to the statement's first
// table-like source. Joins observed inside CTE bodies and derived tables
// are reported against the same left side, so this is best-effort.
func (b *builder) addJoinEdges(sr *analyzer.StatementResult, sq map[string]string) {
	leftID := ""
	for _, src := range sr.Sources {
		if src.Kind == analyzer.TableKindPhysical || src.Kind == analyzer.TableKindVirtual {
			leftID = tableID(src.Name)
			break
		}
	}
	for _, join := range sr.Joins {
		rightID := b.addSourceNode(join.Right, sq, sr.Index, false)
		from := leftID
		if from == "" {
			from = tableID("unknown")
			b.addNode(&Node{
				ID:             from,
				Type:           NodeTable,
				Name:           "unknown",
				FullName:       "unknown",
				Unknown:        true,
				StatementIndex: sr.Index,
				Description:    "Unknown source",
			})
		}
		b.addEdge(EdgeJoinsWith, from, rightID, "Tables joined", sr.Index, map[string]any{
			"join_condition": join.Condition,
			"join_type":      join.Type,
		})
	}
}

// addUnionEdges links every table-like source of a set-operation statement
// to its target table.
func (b *builder) addUnionEdges(sr *analyzer.StatementResult) {
	if len(sr.Unions) == 0 || sr.Target == nil {
		return
	}
	targetID := tableID(sr.Target.FullName())
	for _, src := range sr.Sources {
		if src.Kind != analyzer.TableKindPhysical && src.Kind != analyzer.TableKindVirtual {
			continue
		}
		b.addEdge(EdgeUnionWith, tableID(src.Name), targetID, "Union input to target", sr.Index, map[string]any{
			"union_type": "union",
		})
	}
}
