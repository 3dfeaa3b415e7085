package analyzer

// scope is one level of relation bindings, in FROM-list order. Lookup walks
// local bindings first, ambiguity-checks across the level, then falls through
// to the parent scope for correlated references.
type scope struct {
	run           *run
	parent        *scope
	bindings      []*TableRef
	nullSupplying map[*TableRef]string
}

func newScope(r *run, parent *scope) *scope {
	return &scope{run: r, parent: parent}
}

func (s *scope) bind(ref *TableRef) {
	s.bindings = append(s.bindings, ref)
}

// markNullSupplying flags a binding as the non-preserved side of an outer
// join. The join kind is kept for note text.
func (s *scope) markNullSupplying(ref *TableRef, joinKind string) {
	if s.nullSupplying == nil {
		s.nullSupplying = make(map[*TableRef]string)
	}
	s.nullSupplying[ref] = joinKind
}

// nullSupplyingJoin reports the outer-join kind that made a binding
// nullable, walking enclosing scopes for correlated bindings.
func (s *scope) nullSupplyingJoin(ref *TableRef) (string, bool) {
	for level := s; level != nil; level = level.parent {
		if kind, ok := level.nullSupplying[ref]; ok {
			return kind, true
		}
	}
	return "", false
}

// resolveQualifier finds the binding a table qualifier addresses. Qualifiers
// match the binding alias when one exists, the full table name otherwise.
func (s *scope) resolveQualifier(name string) *TableRef {
	norm := s.run.norm(name)
	for level := s; level != nil; level = level.parent {
		for _, b := range level.bindings {
			if b.Identifier() == norm {
				return b
			}
		}
	}
	return nil
}

// exposure describes whether a binding is known to produce a column.
type exposure int

const (
	exposureHidden exposure = iota // known column set, column absent
	exposureKnown                  // known column set, column present
	exposureOpaque                 // column set unknown
)

// columnExposure checks one binding for a normalized column name. Relations
// with resolved outputs (CTEs, derived tables, virtual tables) expose exactly
// their output columns, except that an unexpanded star makes them opaque.
// Physical tables consult the catalog when one is available.
func (s *scope) columnExposure(b *TableRef, col string) exposure {
	if b.OutputInputs != nil {
		if _, ok := b.OutputInputs["*"]; ok {
			return exposureOpaque
		}
		if _, ok := b.OutputInputs[col]; ok {
			return exposureKnown
		}
		return exposureHidden
	}
	if b.Kind == TableKindPhysical && s.run.catalog != nil {
		if cols, ok := s.run.catalog.Columns(b.FullName()); ok {
			for _, c := range cols {
				if s.run.norm(c) == col {
					return exposureKnown
				}
			}
			return exposureHidden
		}
	}
	return exposureOpaque
}

// resolveColumn binds an unqualified column name. Bindings known to expose
// the column win over opaque ones; when several candidates remain the first
// in FROM order is picked and the ambiguous flag is set. A level whose
// bindings all provably lack the column falls through to its parent.
func (s *scope) resolveColumn(name string) (ref *TableRef, ambiguous, found bool) {
	for level := s; level != nil; level = level.parent {
		if len(level.bindings) == 0 {
			continue
		}
		var known, opaque []*TableRef
		for _, b := range level.bindings {
			switch level.columnExposure(b, name) {
			case exposureKnown:
				known = append(known, b)
			case exposureOpaque:
				opaque = append(opaque, b)
			}
		}
		if len(known) > 0 {
			return known[0], len(known) > 1, true
		}
		if len(opaque) > 0 {
			return opaque[0], len(opaque) > 1, true
		}
	}
	return nil, false, false
}
