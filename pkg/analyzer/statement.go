package analyzer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/lineage/pkg/parser"
)

// stmtAnalyzer resolves one statement. It owns the statement-scoped state:
// the result under construction, the physical tables seen anywhere in the
// statement, placeholder tables for unresolved qualifiers, and counters for
// anonymous derived tables and set-operation branches.
type stmtAnalyzer struct {
	run   *run
	index int
	res   *StatementResult

	reportOrder []*TableRef
	reportSeen  map[string]*TableRef
	unknowns    map[string]*TableRef
	sourceSeen  map[string]struct{}
	subqueryN   int
	unionN      int
}

func (r *run) analyzeStatement(index int, stmt parser.Statement) *StatementResult {
	a := &stmtAnalyzer{
		run:   r,
		index: index,
		res: &StatementResult{
			Index:   index,
			Type:    StatementSelect,
			Columns: []OutputColumn{},
			Sources: []SourceInfo{},
		},
		reportSeen: make(map[string]*TableRef),
		sourceSeen: make(map[string]struct{}),
	}
	switch s := stmt.(type) {
	case *parser.CreateTableStmt:
		a.res.Type = StatementCreateTableAs
		a.res.Target = &Target{Database: r.norm(s.Target.Database), Name: r.norm(s.Target.Name)}
		a.res.Columns = a.analyzeSelect(s.Select, nil, true)
	case *parser.SelectStmt:
		if s.Body != nil && s.Body.Op != parser.SetOpNone {
			a.res.Type = StatementUnion
		}
		a.res.Columns = a.analyzeSelect(s, nil, true)
	}
	if a.res.Columns == nil {
		a.res.Columns = []OutputColumn{}
	}
	a.finishDependencies()
	return a.res
}

// analyzeSelect resolves a select including its WITH clause. CTEs bind in
// definition order into one shared scope level, so later CTE bodies and the
// main body see every CTE defined before them. Only the statement's
// top-level select contributes to the statement source list.
func (a *stmtAnalyzer) analyzeSelect(sel *parser.SelectStmt, parent *scope, top bool) []OutputColumn {
	if sel == nil {
		return nil
	}
	bodyParent := parent
	if sel.With != nil {
		cteScope := newScope(a.run, parent)
		for _, cte := range sel.With.CTEs {
			cols := a.analyzeSelect(cte.Select, cteScope, false)
			ref := &TableRef{Kind: TableKindCTE, Name: a.run.norm(cte.Name)}
			a.run.fillOutputs(ref, cols)
			cteScope.bind(ref)
			if top {
				a.addSource(ref)
			}
		}
		bodyParent = cteScope
	}
	return a.analyzeBody(sel.Body, bodyParent, top)
}

// analyzeBody resolves a select body and merges set-operation branches.
// Branch columns merge by position, not name; the left-most branch supplies
// the output names and expressions. An arity mismatch marks the statement
// output unresolved without aborting the run.
func (a *stmtAnalyzer) analyzeBody(body *parser.SelectBody, parent *scope, top bool) []OutputColumn {
	if body == nil {
		return nil
	}
	type branch struct {
		cols   []OutputColumn
		tables []string
	}
	var branches []branch
	for b := body; b != nil; b = b.Right {
		cols, tables := a.analyzeCore(b.Left, parent, top)
		branches = append(branches, branch{cols: cols, tables: tables})
		if b.Op == parser.SetOpNone {
			break
		}
	}
	if len(branches) == 1 {
		return branches[0].cols
	}
	for _, br := range branches {
		a.res.Unions = append(a.res.Unions, UnionBranch{Index: a.unionN, Tables: br.tables})
		a.unionN++
	}
	merged := branches[0].cols
	for i := 1; i < len(branches); i++ {
		next := branches[i].cols
		if len(next) != len(merged) {
			msg := fmt.Sprintf("set operation branches disagree on arity: branch 0 has %d columns, branch %d has %d",
				len(merged), i, len(next))
			a.res.Errors = append(a.res.Errors, msg)
			a.run.issues.add(IssueArityMismatch, a.index, msg,
				"left_columns", strconv.Itoa(len(merged)),
				"right_columns", strconv.Itoa(len(next)))
			return nil
		}
		for j := range merged {
			refs := make([]ColumnRef, 0, len(merged[j].Lineage.Sources)+len(next[j].Lineage.Sources))
			refs = append(refs, merged[j].Lineage.Sources...)
			refs = append(refs, next[j].Lineage.Sources...)
			merged[j].Lineage.Sources = dedupeRefs(refs)
		}
	}
	for j := range merged {
		merged[j].Lineage.Reason = ReasonUnion
		merged[j].Lineage.Functions = nil
		merged[j].Lineage.Literals = nil
		merged[j].Lineage.Notes = nil
	}
	return merged
}

// analyzeCore resolves one SELECT core: binds the FROM list into a fresh
// scope, records joins and outer-join nullability, then resolves each select
// item against the completed scope. Returns the output columns and the
// physical tables feeding this core, for set-operation branch reporting.
func (a *stmtAnalyzer) analyzeCore(core *parser.SelectCore, parent *scope, top bool) ([]OutputColumn, []string) {
	sc := newScope(a.run, parent)
	var branchTables []string
	if core.From != nil {
		first := a.bindTableRef(core.From.Source, sc, top)
		branchTables = appendBranchTable(branchTables, first)
		for _, join := range core.From.Joins {
			right := a.bindTableRef(join.Right, sc, top)
			branchTables = appendBranchTable(branchTables, right)
			info := JoinInfo{Type: joinTypeString(join.Type), Right: right.Source()}
			switch {
			case join.Condition != nil:
				info.Condition = parser.ExprText(join.Condition)
			case len(join.Using) > 0:
				info.Condition = "USING (" + strings.Join(join.Using, ", ") + ")"
			}
			a.res.Joins = append(a.res.Joins, info)
			switch join.Type {
			case parser.JoinLeft:
				sc.markNullSupplying(right, "LEFT JOIN")
			case parser.JoinRight:
				for _, b := range sc.bindings {
					if b != right {
						sc.markNullSupplying(b, "RIGHT JOIN")
					}
				}
			case parser.JoinFull:
				for _, b := range sc.bindings {
					sc.markNullSupplying(b, "FULL JOIN")
				}
			}
		}
		for _, lv := range core.From.LateralViews {
			a.bindLateralView(lv, sc, top)
		}
	}
	cols := make([]OutputColumn, 0, len(core.Columns))
	for _, item := range core.Columns {
		cols = append(cols, a.buildOutputColumns(item, sc)...)
	}
	return cols, branchTables
}

// bindTableRef resolves one FROM item and binds it into the scope. Named
// relations resolve through the virtual-table registry first (statement
// chaining), then CTE bindings in scope, then fall through to a physical
// table identified by its qualified name.
func (a *stmtAnalyzer) bindTableRef(tr parser.TableRef, sc *scope, top bool) *TableRef {
	switch t := tr.(type) {
	case *parser.TableName:
		db := a.run.norm(t.Database)
		name := a.run.norm(t.Name)
		alias := a.run.norm(t.Alias)
		full := name
		if db != "" {
			full = db + "." + name
		}
		if reg, ok := a.run.registry.lookup(full); ok {
			bound := *reg
			bound.Alias = alias
			sc.bind(&bound)
			if top {
				a.addSource(&bound)
			}
			return &bound
		}
		if db == "" {
			if cte := lookupCTE(sc, name); cte != nil {
				bound := *cte
				bound.Alias = alias
				sc.bind(&bound)
				if top {
					a.addSource(&bound)
				}
				return &bound
			}
		}
		ref := &TableRef{Kind: TableKindPhysical, Database: db, Name: name, Alias: alias}
		a.addReportSource(ref)
		if db == "" {
			if _, ok := a.run.catalog.Columns(full); !ok {
				a.run.issues.add(IssueUnknownTable, a.index,
					fmt.Sprintf("table %q is not qualified and not present in the schema catalog", t.Name),
					"table", full)
			}
		}
		sc.bind(ref)
		if top {
			a.addSource(ref)
		}
		return ref
	case *parser.DerivedTable:
		a.subqueryN++
		name := a.run.norm(t.Alias)
		if name == "" {
			name = fmt.Sprintf("subquery_%d_%d", a.index, a.subqueryN)
		}
		// the body sees the enclosing scope, not its FROM siblings
		cols := a.analyzeSelect(t.Select, sc.parent, false)
		ref := &TableRef{Kind: TableKindSubquery, Name: name}
		a.run.fillOutputs(ref, cols)
		a.res.Subqueries = append(a.res.Subqueries, name)
		sc.bind(ref)
		if top {
			a.addSource(ref)
		}
		return ref
	default:
		return a.unknownTable("")
	}
}

// lookupCTE finds a CTE binding by name anywhere up the scope chain.
// Qualified names never match a CTE.
func lookupCTE(sc *scope, name string) *TableRef {
	for level := sc; level != nil; level = level.parent {
		for _, b := range level.bindings {
			if b.Kind == TableKindCTE && b.Name == name && b.Alias == "" {
				return b
			}
		}
	}
	return nil
}

// bindLateralView lowers LATERAL VIEW generator(args) t AS col, ... into an
// extra derived-table binding whose output columns are the column aliases,
// each fed by the generator's arguments.
func (a *stmtAnalyzer) bindLateralView(lv *parser.LateralView, sc *scope, top bool) {
	var in exprInputs
	a.collectFuncCall(lv.Func, sc, &in)
	expanded := a.expandRefs(in.refs)
	name := a.run.norm(lv.TableAlias)
	if name == "" && len(lv.ColumnAliases) > 0 {
		name = a.run.norm(lv.ColumnAliases[0])
	}
	ref := &TableRef{Kind: TableKindSubquery, Name: name}
	ref.OutputInputs = make(map[string][]ColumnRef, len(lv.ColumnAliases))
	for _, col := range lv.ColumnAliases {
		key := a.run.norm(col)
		ref.OutputOrder = append(ref.OutputOrder, key)
		ref.OutputInputs[key] = expanded
	}
	sc.bind(ref)
	if top {
		a.addSource(ref)
	}
}

// buildOutputColumns resolves one select item. Star items may expand to
// several output columns; everything else yields exactly one.
func (a *stmtAnalyzer) buildOutputColumns(item parser.SelectItem, sc *scope) []OutputColumn {
	if item.Star || item.TableStar != "" {
		return a.expandStar(item, sc)
	}
	var in exprInputs
	a.collectExpr(item.Expr, sc, &in)
	reason := classifyReason(item, &in)
	notes := in.notes
	if kind, ok := a.nullSupplyingSide(in.refs, sc); ok {
		notes = appendUnique(notes, "nullable ("+kind+")")
		if reason == ReasonFunction && a.hasAggregate(in.functions) {
			reason = ReasonJoinFanout
		}
	}
	name := a.run.norm(item.Alias)
	if name == "" {
		if cr, ok := item.Expr.(*parser.ColumnRef); ok {
			name = a.run.norm(cr.Column)
		} else {
			name = parser.ExprText(item.Expr)
		}
	}
	return []OutputColumn{{
		Name:       name,
		Expression: parser.SelectItemText(item),
		Lineage: LineageMapping{
			OutputColumn: name,
			Sources:      a.expandRefs(in.refs),
			Reason:       reason,
			Functions:    sortedFunctions(in.functions),
			Literals:     in.literals,
			Notes:        notes,
		},
	}}
}

// expandStar resolves * and table.* items. When every targeted binding has a
// known column set the star expands to one output column per source column;
// otherwise it stays a single opaque output so consumers can see the star
// was not expandable.
func (a *stmtAnalyzer) expandStar(item parser.SelectItem, sc *scope) []OutputColumn {
	var targets []*TableRef
	if item.TableStar != "" {
		ref := sc.resolveQualifier(item.TableStar)
		if ref == nil {
			a.run.issues.add(IssueUnresolvedReference, a.index,
				fmt.Sprintf("unknown table or alias %q for star expansion", item.TableStar),
				"reference", item.TableStar+".*")
			return []OutputColumn{a.opaqueStar(item)}
		}
		targets = []*TableRef{ref}
	} else {
		targets = sc.bindings
	}
	plans := make([][]string, 0, len(targets))
	for _, ref := range targets {
		cols := a.knownColumns(ref)
		if cols == nil {
			return []OutputColumn{a.opaqueStar(item)}
		}
		plans = append(plans, cols)
	}
	var out []OutputColumn
	for i, ref := range targets {
		for _, col := range plans[i] {
			name := a.run.norm(col)
			out = append(out, OutputColumn{
				Name:       name,
				Expression: ref.Identifier() + "." + name,
				Lineage: LineageMapping{
					OutputColumn: name,
					Sources:      a.expandRefs([]ColumnRef{{Table: ref, Name: name}}),
					Reason:       ReasonAlias,
				},
			})
		}
	}
	if len(out) == 0 {
		return []OutputColumn{a.opaqueStar(item)}
	}
	return out
}

// knownColumns returns a binding's column list when it is knowable: resolved
// outputs for CTEs, derived tables, and virtual tables (unless hidden behind
// an unexpanded star), the catalog for physical tables. Nil means unknown.
func (a *stmtAnalyzer) knownColumns(ref *TableRef) []string {
	if ref.OutputInputs != nil {
		if _, ok := ref.OutputInputs["*"]; ok {
			return nil
		}
		return ref.OutputOrder
	}
	if ref.Kind == TableKindPhysical {
		if cols, ok := a.run.catalog.Columns(ref.FullName()); ok {
			return cols
		}
	}
	return nil
}

func (a *stmtAnalyzer) opaqueStar(item parser.SelectItem) OutputColumn {
	return OutputColumn{
		Name:       "*",
		Expression: parser.SelectItemText(item),
		Lineage: LineageMapping{
			OutputColumn: "*",
			Sources:      []ColumnRef{},
			Reason:       ReasonExpression,
			Notes:        []string{"unexpanded star"},
		},
	}
}

// nullSupplyingSide reports whether every direct column reference comes from
// the non-preserved side of an outer join. Items with no references never
// qualify.
func (a *stmtAnalyzer) nullSupplyingSide(refs []ColumnRef, sc *scope) (string, bool) {
	if len(refs) == 0 {
		return "", false
	}
	kind := ""
	for _, r := range refs {
		if r.Table == nil {
			return "", false
		}
		k, ok := sc.nullSupplyingJoin(r.Table)
		if !ok {
			return "", false
		}
		if kind == "" {
			kind = k
		}
	}
	return kind, true
}

func (a *stmtAnalyzer) hasAggregate(fns []string) bool {
	for _, f := range fns {
		if a.run.dialect.IsAggregate(f) {
			return true
		}
	}
	return false
}

// finishDependencies derives each output column's table dependencies from
// its expanded sources: CTE, derived-table, and virtual intermediates are
// dropped (their physical inputs are already present through expansion),
// unresolved placeholders keep their raw name, and every physical table the
// statement touched is listed even when a column draws nothing from it.
func (a *stmtAnalyzer) finishDependencies() {
	for i := range a.res.Columns {
		col := &a.res.Columns[i]
		deps := []Dependency{}
		index := map[string]int{}
		for _, ref := range col.Lineage.Sources {
			if ref.Table == nil {
				continue
			}
			switch ref.Table.Kind {
			case TableKindCTE, TableKindSubquery, TableKindVirtual:
				continue
			}
			table := ref.Table.FullName()
			j, ok := index[table]
			if !ok {
				deps = append(deps, Dependency{Table: table, Columns: []string{}})
				j = len(deps) - 1
				index[table] = j
			}
			deps[j].Columns = appendUnique(deps[j].Columns, ref.Name)
		}
		for _, rs := range a.reportOrder {
			table := rs.FullName()
			if _, ok := index[table]; !ok {
				deps = append(deps, Dependency{Table: table, Columns: []string{}})
				index[table] = len(deps) - 1
			}
		}
		col.Dependencies = deps
	}
}

// addSource records a relation on the statement's source list, deduped by
// kind, name, and alias.
func (a *stmtAnalyzer) addSource(ref *TableRef) {
	s := ref.Source()
	key := string(s.Kind) + "\x00" + s.Name + "\x00" + s.Alias
	if _, ok := a.sourceSeen[key]; ok {
		return
	}
	a.sourceSeen[key] = struct{}{}
	a.res.Sources = append(a.res.Sources, s)
}

// addReportSource records a physical table for dependency reporting, keyed
// by full name so repeated scans of one table collapse.
func (a *stmtAnalyzer) addReportSource(ref *TableRef) {
	full := ref.FullName()
	if _, ok := a.reportSeen[full]; ok {
		return
	}
	a.reportSeen[full] = ref
	a.reportOrder = append(a.reportOrder, ref)
}

func appendBranchTable(tables []string, ref *TableRef) []string {
	if ref == nil {
		return tables
	}
	if ref.Kind != TableKindPhysical && ref.Kind != TableKindVirtual {
		return tables
	}
	full := ref.FullName()
	for _, t := range tables {
		if t == full {
			return tables
		}
	}
	return append(tables, full)
}

func joinTypeString(t parser.JoinType) string {
	if t == parser.JoinComma {
		return "cross"
	}
	return string(t)
}

func dedupeRefs(refs []ColumnRef) []ColumnRef {
	out := make([]ColumnRef, 0, len(refs))
	seen := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		k := r.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
