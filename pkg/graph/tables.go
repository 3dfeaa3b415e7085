package graph

import (
	"sort"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// buildTablesOnly emits table nodes only. All column lineage flowing from
// one table into a statement's target collapses into a single table_lineage
// edge carrying the number of contributing column pairs and the set of
// lineage reasons involved. Statements without a target contribute their
// source tables but no edges.
func (b *builder) buildTablesOnly(res *analyzer.Result) {
	for _, sr := range res.Statements {
		sq := subqueryIDs(sr)
		b.addSourceNodes(sr, sq, true)
		b.addTargetNode(sr)
		if sr.Target == nil {
			continue
		}

		type flow struct {
			pairs   int
			reasons map[string]struct{}
			unknown bool
		}
		byTable := make(map[string]*flow)
		var order []string
		for _, col := range sr.Columns {
			seen := make(map[string]struct{})
			for _, ref := range col.Lineage.Sources {
				t := ref.Table
				if t == nil {
					continue
				}
				switch t.Kind {
				case analyzer.TableKindCTE, analyzer.TableKindSubquery, analyzer.TableKindVirtual:
					continue
				}
				full := t.FullName()
				key := full + "\x00" + ref.Name
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				entry, ok := byTable[full]
				if !ok {
					entry = &flow{reasons: make(map[string]struct{})}
					byTable[full] = entry
					order = append(order, full)
				}
				entry.pairs++
				entry.reasons[string(col.Lineage.Reason)] = struct{}{}
				entry.unknown = entry.unknown || t.Kind == analyzer.TableKindUnknown
			}
		}

		targetID := tableID(sr.Target.FullName())
		for _, table := range order {
			entry := byTable[table]
			db, name := splitTableName(table)
			unknown := entry.unknown || b.isUnknown(table)
			desc := "Source table"
			if unknown {
				desc = "Unknown source"
			}
			b.addNode(&Node{
				ID:             tableID(table),
				Type:           NodeTable,
				Name:           name,
				Database:       db,
				FullName:       table,
				Unknown:        unknown,
				StatementIndex: sr.Index,
				Description:    desc,
			})
			reasons := make([]string, 0, len(entry.reasons))
			for r := range entry.reasons {
				reasons = append(reasons, r)
			}
			sort.Strings(reasons)
			b.addEdge(EdgeTableLineage, tableID(table), targetID, "Table-level lineage", sr.Index, map[string]any{
				"columns_count": entry.pairs,
				"via":           reasons,
			})
		}
	}
}
