// Package dag builds a table-level dependency graph from analysis results.
// Edges run from source tables to the tables built from them, so level 0 of
// the leveled view is always the raw source tables.
package dag

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// Node is one table in the dependency graph.
type Node struct {
	// ID is the fully qualified table name.
	ID string
	// Kind records how the analyzer classified the table.
	Kind analyzer.TableKind
	// Created is true when some statement writes this table.
	Created bool
}

// Graph is a directed graph of table dependencies.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // parent -> children (tables built from it)
	parents map[string][]string // child -> parents (tables it reads)
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// FromResult builds the dependency graph for an analysis run. CTEs and
// derived tables are skipped: only physical tables, tables created by
// earlier statements, and unresolved names participate. Statements without
// a target contribute nodes but no edges.
func FromResult(res *analyzer.Result) *Graph {
	g := New()
	for _, stmt := range res.Statements {
		var sources []string
		for _, src := range stmt.Sources {
			switch src.Kind {
			case analyzer.TableKindPhysical, analyzer.TableKindVirtual, analyzer.TableKindUnknown:
			default:
				continue
			}
			g.Add(src.Name, src.Kind, false)
			sources = append(sources, src.Name)
		}

		if stmt.Target == nil {
			continue
		}
		target := stmt.Target.FullName()
		g.Add(target, analyzer.TableKindPhysical, true)
		for _, name := range sources {
			// A table rebuilt from itself is not a dependency edge.
			if name == target {
				continue
			}
			_ = g.Link(name, target)
		}
	}
	return g
}

// Add inserts a table node. Re-adding merges: Created sticks once set, and
// an unknown kind is upgraded when a later statement resolves the table.
func (g *Graph) Add(id string, kind analyzer.TableKind, created bool) {
	if existing, ok := g.nodes[id]; ok {
		existing.Created = existing.Created || created
		if existing.Kind == analyzer.TableKindUnknown && kind != analyzer.TableKindUnknown {
			existing.Kind = kind
		}
		return
	}
	g.nodes[id] = &Node{ID: id, Kind: kind, Created: created}
	g.edges[id] = []string{}
	g.parents[id] = []string{}
}

// Link adds a directed edge from parent to child (child is built from
// parent). Both nodes must exist and self-loops are rejected. Duplicate
// links are ignored.
func (g *Graph) Link(parentID, childID string) error {
	if _, ok := g.nodes[parentID]; !ok {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, ok := g.nodes[childID]; !ok {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}

	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Node returns a node by table name.
func (g *Graph) Node(id string) (*Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Nodes returns all nodes sorted by table name.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of tables in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// Parents returns the tables id reads from.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the tables built from id.
func (g *Graph) Children(id string) []string {
	return g.edges[id]
}

// HasCycle reports whether the graph contains a cycle, along with one cycle
// path for error reporting. The first and last entries of the path are the
// same table.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	// Sorted iteration keeps the reported cycle stable across runs.
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// Levels groups tables by dependency depth. Level 0 holds tables nothing in
// the input creates from other tables; each later level depends only on
// earlier ones. Tables within a level are sorted. Returns an error when the
// graph has a cycle.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}

		parents := g.parents[id]
		if len(parents) == 0 {
			assigned[id] = 0
			return 0
		}

		maxParentLevel := 0
		for _, parentID := range parents {
			if parentLevel := getLevel(parentID); parentLevel > maxParentLevel {
				maxParentLevel = parentLevel
			}
		}

		level := maxParentLevel + 1
		assigned[id] = level
		return level
	}

	maxLevel := 0
	for id := range g.nodes {
		if level := getLevel(id); level > maxLevel {
			maxLevel = level
		}
	}

	levels := make([][]string, maxLevel+1)
	for i := range levels {
		levels[i] = []string{}
	}
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Roots returns tables with no dependencies, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns tables nothing else is built from, sorted.
func (g *Graph) Leaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
