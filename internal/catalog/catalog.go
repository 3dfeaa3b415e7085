// Package catalog loads schema catalogs from YAML files or a live database.
// A catalog maps qualified table names to their column lists and drives star
// expansion and unqualified column attribution during analysis.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// ParseYAML decodes a table-to-columns mapping. The expected shape is a
// top-level map of qualified table names to column name lists:
//
//	core.users: [id, name, city]
//	core.orders:
//	  - user_id
//	  - total
//
// Table keys must match the identifier normalization of the dialect under
// analysis (lowercase for case-folding dialects such as postgres and mysql).
func ParseYAML(data []byte) (analyzer.Catalog, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid schema YAML: %w", err)
	}
	if raw == nil {
		return analyzer.Catalog{}, nil
	}
	cat := make(analyzer.Catalog, len(raw))
	for table, cols := range raw {
		cat[table] = cols
	}
	return cat, nil
}

// LoadYAML reads a schema catalog from a YAML file.
func LoadYAML(path string) (analyzer.Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from a user flag
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	cat, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Merge overlays src onto dst and returns the result. Tables present in both
// take src's column list. Either argument may be nil.
func Merge(dst, src analyzer.Catalog) analyzer.Catalog {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(analyzer.Catalog, len(src))
	}
	for table, cols := range src {
		dst[table] = cols
	}
	return dst
}

// Tables returns the catalog's table names in sorted order.
func Tables(cat analyzer.Catalog) []string {
	names := make([]string, 0, len(cat))
	for table := range cat {
		names = append(names, table)
	}
	sort.Strings(names)
	return names
}
