package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/lineage/pkg/parser"
)

// exprInputs accumulates what one output expression draws on: direct column
// references in visit order, function names, literal values, and notes.
type exprInputs struct {
	refs      []ColumnRef
	functions []string
	literals  []string
	notes     []string
}

func (in *exprInputs) note(n string) {
	in.notes = appendUnique(in.notes, n)
}

// collectExpr walks one expression tree, resolving column references against
// the scope and recording functions and literal values. The variant set is
// closed: every expression node the parser produces is matched here, so a
// new construct fails loudly at review time instead of passing silently.
func (a *stmtAnalyzer) collectExpr(e parser.Expr, sc *scope, in *exprInputs) {
	switch ex := e.(type) {
	case nil:
	case *parser.ColumnRef:
		a.resolveColumnExpr(ex, sc, in)
	case *parser.Literal:
		in.literals = appendUnique(in.literals, literalValue(ex))
	case *parser.BinaryExpr:
		a.collectExpr(ex.Left, sc, in)
		a.collectExpr(ex.Right, sc, in)
	case *parser.UnaryExpr:
		a.collectExpr(ex.Expr, sc, in)
	case *parser.FuncCall:
		a.collectFuncCall(ex, sc, in)
	case *parser.CaseExpr:
		a.collectExpr(ex.Operand, sc, in)
		for _, when := range ex.Whens {
			a.collectExpr(when.Condition, sc, in)
			a.collectExpr(when.Result, sc, in)
		}
		a.collectExpr(ex.Else, sc, in)
	case *parser.CastExpr:
		a.collectExpr(ex.Expr, sc, in)
	case *parser.InExpr:
		a.collectExpr(ex.Expr, sc, in)
		for _, v := range ex.Values {
			a.collectExpr(v, sc, in)
		}
		if ex.Query != nil {
			a.collectSubquery(ex.Query, sc, in, "subquery predicate")
		}
	case *parser.BetweenExpr:
		a.collectExpr(ex.Expr, sc, in)
		a.collectExpr(ex.Low, sc, in)
		a.collectExpr(ex.High, sc, in)
	case *parser.IsNullExpr:
		a.collectExpr(ex.Expr, sc, in)
	case *parser.IsBoolExpr:
		a.collectExpr(ex.Expr, sc, in)
	case *parser.LikeExpr:
		a.collectExpr(ex.Expr, sc, in)
		a.collectExpr(ex.Pattern, sc, in)
	case *parser.IndexExpr:
		a.collectExpr(ex.Expr, sc, in)
		a.collectExpr(ex.Index, sc, in)
	case *parser.ParenExpr:
		a.collectExpr(ex.Expr, sc, in)
	case *parser.StarExpr:
		// stars are expanded at the select-item level; inside an
		// expression only COUNT(*) is legal and carries no lineage
	case *parser.SubqueryExpr:
		a.collectSubquery(ex.Select, sc, in, "scalar subquery")
	case *parser.ExistsExpr:
		a.collectSubquery(ex.Select, sc, in, "exists subquery")
	}
}

// collectFuncCall records the call under both its surface spelling and its
// canonical name when the dialect maps it to a synonym, then walks the
// arguments and any window specification.
func (a *stmtAnalyzer) collectFuncCall(fc *parser.FuncCall, sc *scope, in *exprInputs) {
	surface := strings.ToLower(fc.Name)
	in.functions = appendUnique(in.functions, surface)
	if canonical := a.run.dialect.CanonicalFunc(fc.Name); canonical != surface {
		in.functions = appendUnique(in.functions, canonical)
	}
	for _, arg := range fc.Args {
		a.collectExpr(arg, sc, in)
	}
	if w := fc.Window; w != nil {
		for _, pe := range w.PartitionBy {
			a.collectExpr(pe, sc, in)
		}
		for _, ob := range w.OrderBy {
			a.collectExpr(ob.Expr, sc, in)
		}
		if fr := w.Frame; fr != nil {
			if fr.Start != nil {
				a.collectExpr(fr.Start.Offset, sc, in)
			}
			if fr.End != nil {
				a.collectExpr(fr.End.Offset, sc, in)
			}
		}
	}
}

// resolveColumnExpr binds one column reference. Qualified references resolve
// through the scope chain; an unknown qualifier is kept as a placeholder
// table rather than dropped. Unqualified references search the bindings of
// the current scope, falling back to enclosing scopes for correlated use.
func (a *stmtAnalyzer) resolveColumnExpr(cr *parser.ColumnRef, sc *scope, in *exprInputs) {
	col := a.run.norm(cr.Column)
	if cr.Table != "" {
		if ref := sc.resolveQualifier(cr.Table); ref != nil {
			in.refs = append(in.refs, ColumnRef{Table: ref, Name: col})
			return
		}
		ref := a.unknownTable(cr.Table)
		in.refs = append(in.refs, ColumnRef{Table: ref, Name: col})
		a.run.issues.add(IssueUnresolvedReference, a.index,
			fmt.Sprintf("unknown table or alias %q for column %q", cr.Table, cr.Column),
			"reference", cr.Table+"."+cr.Column)
		return
	}
	ref, ambiguous, found := sc.resolveColumn(col)
	if !found {
		in.refs = append(in.refs, ColumnRef{Name: col})
		in.note("unresolved column: " + col)
		a.run.issues.add(IssueUnresolvedReference, a.index,
			fmt.Sprintf("column %q does not match any source", cr.Column),
			"reference", cr.Column)
		return
	}
	if ambiguous {
		in.note("ambiguous column: " + col)
		a.run.issues.add(IssueAmbiguousReference, a.index,
			fmt.Sprintf("column %q matches more than one source, using %q", cr.Column, ref.Identifier()),
			"reference", cr.Column, "picked", ref.Identifier())
	}
	in.refs = append(in.refs, ColumnRef{Table: ref, Name: col})
}

// collectSubquery folds a subquery used inside an expression into the
// enclosing item: the subquery's first output column contributes its
// resolved sources. The subquery body sees the enclosing scope, so
// correlated references bind to the outer query's tables.
func (a *stmtAnalyzer) collectSubquery(sel *parser.SelectStmt, sc *scope, in *exprInputs, note string) {
	cols := a.analyzeSelect(sel, sc, false)
	if len(cols) > 0 {
		in.refs = append(in.refs, cols[0].Lineage.Sources...)
	}
	in.note(note)
}

// unknownTable returns the statement's placeholder ref for an unresolvable
// qualifier, creating it on first use. One placeholder per name keeps
// repeated references pointing at the same entity.
func (a *stmtAnalyzer) unknownTable(name string) *TableRef {
	norm := a.run.norm(name)
	if ref, ok := a.unknowns[norm]; ok {
		return ref
	}
	ref := &TableRef{Kind: TableKindUnknown, Name: norm}
	if a.unknowns == nil {
		a.unknowns = make(map[string]*TableRef)
	}
	a.unknowns[norm] = ref
	return ref
}

// expandRefs applies the transitive closure to direct references: a ref into
// a CTE, derived table, or virtual table keeps its place and is followed by
// that relation's own already-expanded inputs for the column. The result is
// deduped preserving first occurrence.
func (a *stmtAnalyzer) expandRefs(refs []ColumnRef) []ColumnRef {
	out := make([]ColumnRef, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	add := func(r ColumnRef) {
		k := r.key()
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	for _, r := range refs {
		add(r)
		if r.Table != nil && r.Table.OutputInputs != nil {
			for _, inner := range r.Table.OutputInputs[r.Name] {
				add(inner)
			}
		}
	}
	return out
}

// classifyReason picks the mapping reason for one select item. A bare column
// is an alias (rename at most); a bare literal is a literal; a function call
// with at least one column source is a function; everything else, including
// calls over no columns at all, is an expression.
func classifyReason(item parser.SelectItem, in *exprInputs) Reason {
	if _, ok := item.Expr.(*parser.ColumnRef); ok {
		return ReasonAlias
	}
	if _, ok := item.Expr.(*parser.Literal); ok {
		return ReasonLiteral
	}
	if len(in.refs) > 0 && len(in.functions) > 0 {
		return ReasonFunction
	}
	return ReasonExpression
}

// literalValue renders a literal for the literals list: strings unquoted,
// numbers verbatim, booleans and NULL uppercased.
func literalValue(l *parser.Literal) string {
	switch l.Type {
	case parser.LiteralBool:
		return strings.ToUpper(l.Value)
	case parser.LiteralNull:
		return "NULL"
	default:
		return l.Value
	}
}

// sortedFunctions returns the function list sorted for stable output.
func sortedFunctions(fns []string) []string {
	if len(fns) == 0 {
		return nil
	}
	out := make([]string, len(fns))
	copy(out, fns)
	sort.Strings(out)
	return out
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
