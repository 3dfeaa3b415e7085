package graph

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// Format selects an export rendering.
type Format string

// Export formats.
const (
	FormatJSON             Format = "json"
	FormatMermaidFlowchart Format = "mermaid_flowchart"
	FormatMermaidER        Format = "mermaid_er"
	FormatGraphvizDot      Format = "graphviz_dot"
)

// Export renders a graph in the requested format. An unknown format, or a
// Mermaid ER request against a graph mode that carries no relational
// structure, records the problem on the graph and falls back to the Mermaid
// flowchart rendering instead of failing. The error return is reserved for
// encoding failures.
func Export(g *Graph, format Format) (string, error) {
	switch Format(strings.ToLower(strings.TrimSpace(string(format)))) {
	case FormatJSON:
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding graph: %w", err)
		}
		return string(data), nil
	case FormatMermaidFlowchart:
		return exportMermaidFlowchart(g), nil
	case FormatMermaidER:
		if g.Mode != ModeERColumns && g.Mode != ModeTablesOnly {
			msg := "Mermaid ER export is only supported for er_columns or tables_only modes."
			g.Errors = append(g.Errors, msg)
			g.Warnings = append(g.Warnings, analyzer.Issue{
				Code:           analyzer.IssueUnsupportedExport,
				Message:        msg,
				StatementIndex: -1,
				Context: map[string]string{
					"format": string(FormatMermaidER),
					"mode":   string(g.Mode),
				},
			})
			return exportMermaidFlowchart(g), nil
		}
		return exportMermaidER(g), nil
	case FormatGraphvizDot:
		return exportGraphvizDot(g), nil
	default:
		msg := fmt.Sprintf("Unsupported export format: %s", format)
		g.Errors = append(g.Errors, msg)
		g.Warnings = append(g.Warnings, analyzer.Issue{
			Code:           analyzer.IssueUnsupportedExport,
			Message:        msg,
			StatementIndex: -1,
			Context:        map[string]string{"format": string(format)},
		})
		return exportMermaidFlowchart(g), nil
	}
}

// ---------- Mermaid Flowchart ----------

func exportMermaidFlowchart(g *Graph) string {
	var sb strings.Builder
	sb.WriteString("flowchart LR")
	for _, n := range g.Nodes {
		open, closing := mermaidShape(n.Type)
		sb.WriteString("\n  ")
		sb.WriteString(mermaidSafe(n.ID))
		sb.WriteString(open)
		sb.WriteString(`"`)
		sb.WriteString(nodeLabel(n))
		sb.WriteString(`"`)
		sb.WriteString(closing)
	}
	for _, e := range g.Edges {
		sb.WriteString(fmt.Sprintf("\n  %s -->|%s| %s", mermaidSafe(e.From), e.Type, mermaidSafe(e.To)))
	}
	return sb.String()
}

func mermaidShape(t NodeType) (open, closing string) {
	switch t {
	case NodeExpression:
		return "{", "}"
	case NodeColumn:
		return "((", "))"
	default:
		return "[", "]"
	}
}

// nodeLabel picks the human-readable text for a node: column name,
// expression SQL, or the relation's fullest available name.
func nodeLabel(n *Node) string {
	switch n.Type {
	case NodeColumn:
		return n.Name
	case NodeExpression:
		return n.SQL
	default:
		if n.FullName != "" {
			return n.FullName
		}
		return n.Name
	}
}

// mermaidSafe rewrites an identifier so Mermaid treats it as a single token.
func mermaidSafe(id string) string {
	var sb strings.Builder
	sb.Grow(len(id))
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// ---------- Mermaid ER ----------

func exportMermaidER(g *Graph) string {
	var sb strings.Builder
	sb.WriteString("erDiagram")
	for _, n := range g.Nodes {
		if n.Type != NodeTable {
			continue
		}
		name := n.FullName
		if name == "" {
			name = n.Name
		}
		sb.WriteString("\n  ")
		sb.WriteString(mermaidSafe(name))
		sb.WriteString(" {")
		for _, col := range n.Columns {
			sb.WriteString("\n    string ")
			sb.WriteString(mermaidSafe(col))
		}
		sb.WriteString("\n  }")
	}
	for _, e := range g.Edges {
		if e.Type != EdgeTableLineage && e.Type != EdgeJoinsWith {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n  %s ||--o{ %s : %s", mermaidSafe(e.From), mermaidSafe(e.To), e.Type))
	}
	return sb.String()
}

// ---------- Graphviz DOT ----------

func exportGraphvizDot(g *Graph) string {
	var sb strings.Builder
	sb.WriteString("digraph lineage {")
	clusters := make(map[int][]*Node)
	var order []int
	for _, n := range g.Nodes {
		if _, ok := clusters[n.StatementIndex]; !ok {
			order = append(order, n.StatementIndex)
		}
		clusters[n.StatementIndex] = append(clusters[n.StatementIndex], n)
	}
	for _, idx := range order {
		sb.WriteString(fmt.Sprintf("\n  subgraph \"cluster_%d\" {", idx))
		sb.WriteString(fmt.Sprintf("\n    label=\"Statement %d\"", idx))
		for _, n := range clusters[idx] {
			sb.WriteString(fmt.Sprintf("\n    %q [label=%q];", n.ID, nodeLabel(n)))
		}
		sb.WriteString("\n  }")
	}
	for _, e := range g.Edges {
		sb.WriteString(fmt.Sprintf("\n  %q -> %q [label=%q];", e.From, e.To, e.Type))
	}
	sb.WriteString("\n}")
	return sb.String()
}
