package parser

import (
	"strings"

	"github.com/leapstack-labs/lineage/pkg/token"
)

// SQL text rendering for AST nodes. Lineage output reports each output
// column's expression and each join condition as SQL text; the renderings
// here are deterministic so they can double as stable hash inputs for graph
// node identifiers. Subqueries render as a placeholder since their lineage
// is reported separately.

// ExprText renders an expression back to SQL text.
func ExprText(e Expr) string {
	switch ex := e.(type) {
	case *ColumnRef:
		if ex.Table != "" {
			return ex.Table + "." + ex.Column
		}
		return ex.Column

	case *Literal:
		return literalText(ex)

	case *BinaryExpr:
		return ExprText(ex.Left) + " " + ex.Op.String() + " " + ExprText(ex.Right)

	case *UnaryExpr:
		if ex.Op == token.NOT {
			return "NOT " + ExprText(ex.Expr)
		}
		return ex.Op.String() + ExprText(ex.Expr)

	case *FuncCall:
		return funcCallText(ex)

	case *CaseExpr:
		return caseText(ex)

	case *CastExpr:
		return "CAST(" + ExprText(ex.Expr) + " AS " + ex.TypeName + ")"

	case *InExpr:
		return inText(ex)

	case *BetweenExpr:
		text := ExprText(ex.Expr)
		if ex.Not {
			text += " NOT"
		}
		return text + " BETWEEN " + ExprText(ex.Low) + " AND " + ExprText(ex.High)

	case *IsNullExpr:
		if ex.Not {
			return ExprText(ex.Expr) + " IS NOT NULL"
		}
		return ExprText(ex.Expr) + " IS NULL"

	case *IsBoolExpr:
		text := ExprText(ex.Expr) + " IS "
		if ex.Not {
			text += "NOT "
		}
		if ex.Value {
			return text + "TRUE"
		}
		return text + "FALSE"

	case *LikeExpr:
		text := ExprText(ex.Expr)
		if ex.Not {
			text += " NOT"
		}
		return text + " " + ex.Op.String() + " " + ExprText(ex.Pattern)

	case *IndexExpr:
		return ExprText(ex.Expr) + "[" + ExprText(ex.Index) + "]"

	case *ParenExpr:
		return "(" + ExprText(ex.Expr) + ")"

	case *StarExpr:
		if ex.Table != "" {
			return ex.Table + ".*"
		}
		return "*"

	case *SubqueryExpr:
		return "(SELECT ...)"

	case *ExistsExpr:
		if ex.Not {
			return "NOT EXISTS (SELECT ...)"
		}
		return "EXISTS (SELECT ...)"

	case nil:
		return ""

	default:
		return ""
	}
}

// SelectItemText renders a SELECT list item, including its alias.
func SelectItemText(item SelectItem) string {
	if item.Star {
		return "*"
	}
	if item.TableStar != "" {
		return item.TableStar + ".*"
	}
	text := ExprText(item.Expr)
	if item.Alias != "" {
		text += " AS " + item.Alias
	}
	return text
}

func literalText(lit *Literal) string {
	switch lit.Type {
	case LiteralString:
		return "'" + strings.ReplaceAll(lit.Value, "'", "''") + "'"
	case LiteralBool:
		return strings.ToUpper(lit.Value)
	case LiteralNull:
		return "NULL"
	default:
		return lit.Value
	}
}

func funcCallText(fn *FuncCall) string {
	var sb strings.Builder
	sb.WriteString(fn.Name)
	sb.WriteByte('(')
	switch {
	case fn.Star:
		sb.WriteByte('*')
	default:
		if fn.Distinct {
			sb.WriteString("DISTINCT ")
		}
		for i, arg := range fn.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(ExprText(arg))
		}
	}
	sb.WriteByte(')')
	if fn.Window != nil {
		sb.WriteString(" OVER (")
		sb.WriteString(windowText(fn.Window))
		sb.WriteByte(')')
	}
	return sb.String()
}

func windowText(spec *WindowSpec) string {
	var parts []string
	if len(spec.PartitionBy) > 0 {
		exprs := make([]string, len(spec.PartitionBy))
		for i, e := range spec.PartitionBy {
			exprs[i] = ExprText(e)
		}
		parts = append(parts, "PARTITION BY "+strings.Join(exprs, ", "))
	}
	if len(spec.OrderBy) > 0 {
		items := make([]string, len(spec.OrderBy))
		for i, item := range spec.OrderBy {
			items[i] = orderByText(item)
		}
		parts = append(parts, "ORDER BY "+strings.Join(items, ", "))
	}
	if spec.Frame != nil {
		parts = append(parts, frameText(spec.Frame))
	}
	return strings.Join(parts, " ")
}

func orderByText(item OrderByItem) string {
	text := ExprText(item.Expr)
	if item.Desc {
		text += " DESC"
	}
	if item.NullsFirst != nil {
		if *item.NullsFirst {
			text += " NULLS FIRST"
		} else {
			text += " NULLS LAST"
		}
	}
	return text
}

func frameText(frame *FrameSpec) string {
	text := string(frame.Type)
	if frame.End != nil {
		return text + " BETWEEN " + boundText(frame.Start) + " AND " + boundText(frame.End)
	}
	return text + " " + boundText(frame.Start)
}

func boundText(bound *FrameBound) string {
	switch bound.Type {
	case FrameExprPreceding:
		return ExprText(bound.Offset) + " PRECEDING"
	case FrameExprFollowing:
		return ExprText(bound.Offset) + " FOLLOWING"
	default:
		return string(bound.Type)
	}
}

func caseText(caseExpr *CaseExpr) string {
	var sb strings.Builder
	sb.WriteString("CASE")
	if caseExpr.Operand != nil {
		sb.WriteByte(' ')
		sb.WriteString(ExprText(caseExpr.Operand))
	}
	for _, when := range caseExpr.Whens {
		sb.WriteString(" WHEN ")
		sb.WriteString(ExprText(when.Condition))
		sb.WriteString(" THEN ")
		sb.WriteString(ExprText(when.Result))
	}
	if caseExpr.Else != nil {
		sb.WriteString(" ELSE ")
		sb.WriteString(ExprText(caseExpr.Else))
	}
	sb.WriteString(" END")
	return sb.String()
}

func inText(in *InExpr) string {
	text := ExprText(in.Expr)
	if in.Not {
		text += " NOT"
	}
	text += " IN ("
	if in.Query != nil {
		return text + "SELECT ...)"
	}
	values := make([]string, len(in.Values))
	for i, v := range in.Values {
		values[i] = ExprText(v)
	}
	return text + strings.Join(values, ", ") + ")"
}
