package dialect

import (
	"fmt"
	"sort"
	"sync"
)

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// Register makes a dialect available by its name.
// Registering a nil dialect or a duplicate name panics, matching the
// database/sql driver registration contract. Intended to be called from
// init() in concrete dialect packages.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()

	if d == nil {
		panic("dialect: Register dialect is nil")
	}
	if d.Name == "" {
		panic("dialect: Register dialect has empty name")
	}
	if _, dup := dialects[d.Name]; dup {
		panic(fmt.Sprintf("dialect: Register called twice for dialect %q", d.Name))
	}
	dialects[d.Name] = d
}

// Get returns a registered dialect by name.
func Get(name string) (*Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()

	d, ok := dialects[name]
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %v)", name, listLocked())
	}
	return d, nil
}

// List returns the names of all registered dialects, sorted.
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return listLocked()
}

func listLocked() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
