package dag

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

func TestGraph_AddAndLink(t *testing.T) {
	g := New()

	g.Add("core.users", analyzer.TableKindPhysical, false)
	g.Add("core.orders", analyzer.TableKindPhysical, false)
	g.Add("analytics.result", analyzer.TableKindPhysical, true)

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	if err := g.Link("core.users", "analytics.result"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.Link("core.orders", "analytics.result"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	// Duplicate links are ignored
	if err := g.Link("core.users", "analytics.result"); err != nil {
		t.Errorf("failed to re-add edge: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddMergesNodes(t *testing.T) {
	g := New()

	g.Add("t", analyzer.TableKindUnknown, false)
	g.Add("t", analyzer.TableKindPhysical, true)

	node, ok := g.Node("t")
	if !ok {
		t.Fatal("expected node to exist")
	}
	if node.Kind != analyzer.TableKindPhysical {
		t.Errorf("expected unknown kind to be upgraded, got %s", node.Kind)
	}
	if !node.Created {
		t.Error("expected Created to stick once set")
	}

	// A later virtual sighting must not downgrade the kind
	g.Add("t", analyzer.TableKindVirtual, false)
	node, _ = g.Node("t")
	if node.Kind != analyzer.TableKindPhysical {
		t.Errorf("expected kind to stay physical, got %s", node.Kind)
	}
}

func TestGraph_Link_InvalidNodes(t *testing.T) {
	g := New()
	g.Add("a", analyzer.TableKindPhysical, false)

	if err := g.Link("a", "nonexistent"); err == nil {
		t.Error("expected error for nonexistent child node")
	}
	if err := g.Link("nonexistent", "a"); err == nil {
		t.Error("expected error for nonexistent parent node")
	}
}

func TestGraph_Link_SelfLoop(t *testing.T) {
	g := New()
	g.Add("a", analyzer.TableKindPhysical, false)

	if err := g.Link("a", "a"); err == nil {
		t.Error("expected error for self-loop")
	}
}

func TestGraph_ParentsAndChildren(t *testing.T) {
	g := New()
	g.Add("a", analyzer.TableKindPhysical, false)
	g.Add("b", analyzer.TableKindPhysical, true)
	g.Add("c", analyzer.TableKindPhysical, true)

	g.Link("a", "b")
	g.Link("a", "c")
	g.Link("b", "c")

	if parents := g.Parents("c"); len(parents) != 2 {
		t.Errorf("expected c to have 2 parents, got %d", len(parents))
	}
	if children := g.Children("a"); len(children) != 2 {
		t.Errorf("expected a to have 2 children, got %d", len(children))
	}
}

func TestGraph_HasCycle_NoCycle(t *testing.T) {
	g := New()
	g.Add("a", analyzer.TableKindPhysical, false)
	g.Add("b", analyzer.TableKindPhysical, true)
	g.Add("c", analyzer.TableKindPhysical, true)

	g.Link("a", "b")
	g.Link("b", "c")

	if hasCycle, path := g.HasCycle(); hasCycle {
		t.Errorf("expected no cycle, but found: %v", path)
	}
}

func TestGraph_HasCycle_WithCycle(t *testing.T) {
	g := New()
	g.Add("a", analyzer.TableKindPhysical, true)
	g.Add("b", analyzer.TableKindPhysical, true)

	g.Link("a", "b")
	g.Link("b", "a")

	hasCycle, path := g.HasCycle()
	if !hasCycle {
		t.Fatal("expected cycle to be detected")
	}
	if want := []string{"a", "b", "a"}; !reflect.DeepEqual(path, want) {
		t.Errorf("expected cycle path %v, got %v", want, path)
	}
}

func TestGraph_Levels(t *testing.T) {
	g := New()
	g.Add("core.users", analyzer.TableKindPhysical, false)
	g.Add("core.orders", analyzer.TableKindPhysical, false)
	g.Add("analytics.stage", analyzer.TableKindPhysical, true)
	g.Add("analytics.final", analyzer.TableKindPhysical, true)

	g.Link("core.users", "analytics.stage")
	g.Link("analytics.stage", "analytics.final")
	g.Link("core.orders", "analytics.final")

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{
		{"core.orders", "core.users"},
		{"analytics.stage"},
		{"analytics.final"},
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("expected levels %v, got %v", want, levels)
	}
}

func TestGraph_Levels_CycleError(t *testing.T) {
	g := New()
	g.Add("a", analyzer.TableKindPhysical, true)
	g.Add("b", analyzer.TableKindPhysical, true)
	g.Link("a", "b")
	g.Link("b", "a")

	_, err := g.Levels()
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(err.Error(), "cycle detected") {
		t.Errorf("expected cycle message, got: %v", err)
	}
}

func TestGraph_RootsAndLeaves(t *testing.T) {
	g := New()
	g.Add("core.users", analyzer.TableKindPhysical, false)
	g.Add("core.orders", analyzer.TableKindPhysical, false)
	g.Add("analytics.final", analyzer.TableKindPhysical, true)
	g.Link("core.users", "analytics.final")
	g.Link("core.orders", "analytics.final")

	if roots := g.Roots(); !reflect.DeepEqual(roots, []string{"core.orders", "core.users"}) {
		t.Errorf("unexpected roots: %v", roots)
	}
	if leaves := g.Leaves(); !reflect.DeepEqual(leaves, []string{"analytics.final"}) {
		t.Errorf("unexpected leaves: %v", leaves)
	}
}

func TestFromResult(t *testing.T) {
	res := &analyzer.Result{
		Dialect: "clickhouse",
		Statements: []*analyzer.StatementResult{
			{
				Index:  0,
				Type:   analyzer.StatementCreateTableAs,
				Target: &analyzer.Target{Database: "analytics", Name: "stage"},
				Sources: []analyzer.SourceInfo{
					{Kind: analyzer.TableKindPhysical, Name: "core.users", Alias: "u"},
					{Kind: analyzer.TableKindCTE, Name: "base"},
				},
			},
			{
				Index:  1,
				Type:   analyzer.StatementCreateTableAs,
				Target: &analyzer.Target{Database: "analytics", Name: "final"},
				Sources: []analyzer.SourceInfo{
					{Kind: analyzer.TableKindVirtual, Name: "analytics.stage"},
					{Kind: analyzer.TableKindPhysical, Name: "core.orders"},
				},
			},
		},
	}

	g := FromResult(res)

	if g.NodeCount() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NodeCount())
	}
	if _, ok := g.Node("base"); ok {
		t.Error("expected CTE to be excluded from the graph")
	}
	if g.EdgeCount() != 3 {
		t.Errorf("expected 3 edges, got %d", g.EdgeCount())
	}

	stage, ok := g.Node("analytics.stage")
	if !ok {
		t.Fatal("expected analytics.stage node")
	}
	if !stage.Created {
		t.Error("expected created table to be marked Created")
	}
	if stage.Kind != analyzer.TableKindPhysical {
		t.Errorf("expected created table to stay physical, got %s", stage.Kind)
	}

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][]string{
		{"core.orders", "core.users"},
		{"analytics.stage"},
		{"analytics.final"},
	}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("expected levels %v, got %v", want, levels)
	}
}

func TestFromResult_SelfReference(t *testing.T) {
	res := &analyzer.Result{
		Statements: []*analyzer.StatementResult{
			{
				Index:  0,
				Type:   analyzer.StatementCreateTableAs,
				Target: &analyzer.Target{Name: "t"},
				Sources: []analyzer.SourceInfo{
					{Kind: analyzer.TableKindPhysical, Name: "t"},
				},
			},
		},
	}

	g := FromResult(res)

	if g.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("expected no self edge, got %d", g.EdgeCount())
	}
}

func TestFromResult_SelectOnlyAddsNodes(t *testing.T) {
	res := &analyzer.Result{
		Statements: []*analyzer.StatementResult{
			{
				Index: 0,
				Type:  analyzer.StatementSelect,
				Sources: []analyzer.SourceInfo{
					{Kind: analyzer.TableKindPhysical, Name: "core.users"},
					{Kind: analyzer.TableKindUnknown, Name: "mystery"},
				},
			},
		},
	}

	g := FromResult(res)

	if g.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Errorf("expected no edges, got %d", g.EdgeCount())
	}

	mystery, ok := g.Node("mystery")
	if !ok {
		t.Fatal("expected unresolved table to appear")
	}
	if mystery.Kind != analyzer.TableKindUnknown {
		t.Errorf("expected unknown kind, got %s", mystery.Kind)
	}
}
