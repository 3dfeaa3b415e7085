package graph

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// buildERColumns emits tables and columns only: col_lineage edges for every
// resolved input, plus best-effort FK-like edges derived from equality join
// predicates. Relation nodes are annotated with their column lists at the
// end so ER renderings can show attributes.
func (b *builder) buildERColumns(res *analyzer.Result) {
	for _, sr := range res.Statements {
		sq := subqueryIDs(sr)
		b.addSourceNodes(sr, sq, false)
		b.addTargetNode(sr)
		for _, col := range sr.Columns {
			b.addERColumn(sr, col, sq)
		}
		b.addFKLikeEdges(sr, sq)
	}
	b.fillRelationColumns()
}

func (b *builder) addERColumn(sr *analyzer.StatementResult, col analyzer.OutputColumn, sq map[string]string) {
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
	for _, ref := range col.Lineage.Sources {
		rel := b.resolveRef(ref, sq, sr.Index)
		b.ensureRelationNode(rel, sr.Index)
		inID := b.ensureColumnNode(rel, ref.Name, sr.Index)
		b.addEdge(EdgeColLineage, inID, outID, "Column lineage", sr.Index, map[string]any{
			"how":            string(col.Lineage.Reason),
			"expression_sql": col.Expression,
		})
	}
}

// addFKLikeEdges derives key relationships from join conditions of the form
// a.col = b.col where either column name ends in "id". This is a rendering
// heuristic, not a constraint discovery.
func (b *builder) addFKLikeEdges(sr *analyzer.StatementResult, sq map[string]string) {
	for _, join := range sr.Joins {
		cond := join.Condition
		eq := strings.Index(cond, "=")
		if eq < 0 {
			continue
		}
		left := strings.TrimSpace(cond[:eq])
		right := strings.TrimSpace(cond[eq+1:])
		if !strings.Contains(left, ".") || !strings.Contains(right, ".") {
			continue
		}
		leftQual, leftCol, _ := strings.Cut(left, ".")
		rightQual, rightCol, _ := strings.Cut(right, ".")
		leftRel := b.qualifierRelation(sr, leftQual, sq, left)
		rightRel := b.qualifierRelation(sr, rightQual, sq, right)
		if !strings.HasSuffix(leftCol, "id") && !strings.HasSuffix(rightCol, "id") {
			continue
		}
		b.ensureRelationNode(leftRel, sr.Index)
		b.ensureRelationNode(rightRel, sr.Index)
		leftID := b.ensureColumnNode(leftRel, leftCol, sr.Index)
		rightID := b.ensureColumnNode(rightRel, rightCol, sr.Index)
		b.addEdge(EdgeFKLike, leftID, rightID, "FK-like join condition", sr.Index, map[string]any{
			"how":            "join",
			"expression_sql": cond,
		})
	}
}

// qualifierRelation maps an alias or relation name from a rendered join
// condition back to the relation it names, checking aliases before names.
// Qualifiers visible only inside nested scopes do not resolve here; they
// keep their surface name and produce a warning.
func (b *builder) qualifierRelation(sr *analyzer.StatementResult, qual string, sq map[string]string, ref string) relation {
	var hit *analyzer.SourceInfo
	for i := range sr.Sources {
		if sr.Sources[i].Alias == qual {
			hit = &sr.Sources[i]
			break
		}
	}
	if hit == nil {
		for i := range sr.Sources {
			if sr.Sources[i].Name == qual {
				hit = &sr.Sources[i]
				break
			}
		}
	}
	if hit == nil {
		b.warn(analyzer.IssueUnresolvedReference, sr.Index,
			fmt.Sprintf("unresolved table reference: %q", qual), "reference", ref)
		return relation{columnTable: qual, nodeID: tableID(qual), kind: NodeTable, name: qual, unknown: true}
	}
	switch hit.Kind {
	case analyzer.TableKindCTE:
		return relation{columnTable: "cte." + hit.Name, nodeID: cteID(hit.Name), kind: NodeCTE, name: hit.Name}
	case analyzer.TableKindSubquery:
		id, ok := sq[hit.Name]
		if !ok {
			id = fmt.Sprintf("subquery:%d:%s", sr.Index, hit.Name)
		}
		return relation{columnTable: id, nodeID: id, kind: NodeSubquery, name: hit.Name}
	case analyzer.TableKindUnknown:
		return relation{columnTable: hit.Name, nodeID: tableID(hit.Name), kind: NodeTable, name: hit.Name, unknown: true}
	default:
		return relation{columnTable: hit.Name, nodeID: tableID(hit.Name), kind: NodeTable, name: hit.Name, unknown: b.isUnknown(hit.Name)}
	}
}

// fillRelationColumns populates every relation node with the column names
// attached to it, preserving first-seen order.
func (b *builder) fillRelationColumns() {
	byTable := make(map[string][]string)
	for _, n := range b.graph.Nodes {
		if n.Type != NodeColumn {
			continue
		}
		byTable[n.TableID] = appendUnique(byTable[n.TableID], n.Name)
	}
	for _, n := range b.graph.Nodes {
		switch n.Type {
		case NodeTable, NodeCTE, NodeSubquery:
			n.Columns = byTable[n.ID]
		}
	}
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
