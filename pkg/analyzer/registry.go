package analyzer

// virtualRegistry tracks tables produced by CREATE TABLE ... AS statements,
// keyed by qualified target name. It is run-scoped: created fresh for every
// analysis and never shared across runs.
type virtualRegistry struct {
	tables map[string]*TableRef
}

func newVirtualRegistry() *virtualRegistry {
	return &virtualRegistry{tables: make(map[string]*TableRef)}
}

// lookup returns the virtual table registered under a qualified name.
func (r *virtualRegistry) lookup(name string) (*TableRef, bool) {
	ref, ok := r.tables[name]
	return ref, ok
}

// register stores a virtual table under its qualified name and reports
// whether an earlier entry was replaced. Last write wins.
func (r *virtualRegistry) register(ref *TableRef) bool {
	name := ref.FullName()
	_, replaced := r.tables[name]
	r.tables[name] = ref
	return replaced
}
