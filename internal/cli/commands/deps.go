package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/cli/output"
	"github.com/leapstack-labs/lineage/internal/dag"
	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	opts := &InputOptions{}
	cmd := &cobra.Command{
		Use:   "deps [sql]",
		Short: "Show table-level dependencies in execution order",
		Long: `Build the table dependency graph for SQL statements and print it as
levels: level 0 holds the raw source tables, and each later level holds
tables that depend only on earlier levels.

A dependency cycle is reported in the output without failing the command.`,
		Example: `  # Dependency levels for a multi-statement pipeline
  lineage deps --file etl.sql

  # Machine-readable output
  lineage deps --file etl.sql --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args, opts)
		},
	}

	addInputFlags(cmd, opts)
	return cmd
}

func runDeps(cmd *cobra.Command, args []string, opts *InputOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	in, err := resolveInput(cmd, args, opts)
	if err != nil {
		return err
	}
	cat, err := resolveCatalog(cmd.Context(), cmdCtx.Logger, cmdCtx.Cfg, in)
	if err != nil {
		return err
	}
	res, err := analyzer.Analyze(cmd.Context(), in.SQL, analyzer.Options{
		Dialect: resolveDialect(cmd, cmdCtx.Cfg, in),
		Catalog: cat,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	g := dag.FromResult(res)

	if ok, cycle := g.HasCycle(); ok {
		return depsCycle(r, g, cycle)
	}

	levels, err := g.Levels()
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(buildDepsOutput(g, levels, nil))
	case output.ModeMarkdown:
		depsMarkdown(r, g, levels)
	default:
		depsText(r, g, levels)
	}
	return nil
}

// depsCycle reports a dependency cycle as regular output. The graph is
// still valid; it just has no level order.
func depsCycle(r *output.Renderer, g *dag.Graph, cycle []string) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(buildDepsOutput(g, nil, cycle))
	}
	r.Println("Dependency cycle detected: " + strings.Join(cycle, " -> "))
	return nil
}

func depsText(r *output.Renderer, g *dag.Graph, levels [][]string) {
	styles := r.Styles()
	r.Header(1, "Table Dependencies")

	for i, level := range levels {
		r.Println("")
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
		for _, name := range level {
			line := "  " + styles.TableName.Render(name)
			if node, ok := g.Node(name); ok && node.Created {
				line += " " + styles.Muted.Render("(created)")
			}
			r.Println(line)
			if parents := g.Parents(name); len(parents) > 0 {
				r.Println("    " + styles.Muted.Render("depends on:") + " " + strings.Join(parents, ", "))
			}
			if children := g.Children(name); len(children) > 0 {
				r.Println("    " + styles.Muted.Render("used by:") + " " + strings.Join(children, ", "))
			}
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d tables, %d dependencies", g.NodeCount(), g.EdgeCount())))
}

func depsMarkdown(r *output.Renderer, g *dag.Graph, levels [][]string) {
	r.Println(output.FormatHeader(1, "Table Dependencies"))

	for i, level := range levels {
		r.Println("")
		title := fmt.Sprintf("Level %d", i)
		if i == 0 {
			title = "Level 0 (Sources)"
		}
		r.Println(output.FormatHeader(2, title))
		r.Println("")
		for _, name := range level {
			r.Printf("- %s\n", name)
			if parents := g.Parents(name); len(parents) > 0 {
				r.Printf("  - depends on: %s\n", strings.Join(parents, ", "))
			}
			if children := g.Children(name); len(children) > 0 {
				r.Printf("  - used by: %s\n", strings.Join(children, ", "))
			}
		}
	}

	r.Println("")
	r.Println(output.FormatHeader(2, "Summary"))
	r.Println("")
	r.Println(output.FormatKeyValue("Total Tables", fmt.Sprintf("%d", g.NodeCount())))
	r.Println(output.FormatKeyValue("Total Dependencies", fmt.Sprintf("%d", g.EdgeCount())))
}

func buildDepsOutput(g *dag.Graph, levels [][]string, cycle []string) output.DepsOutput {
	out := output.DepsOutput{
		Levels:      make([]output.DepsLevel, 0, len(levels)),
		TotalTables: g.NodeCount(),
		TotalEdges:  g.EdgeCount(),
		Cycle:       cycle,
	}
	for i, level := range levels {
		dl := output.DepsLevel{Level: i, Tables: make([]output.DepsTable, 0, len(level))}
		for _, name := range level {
			dt := output.DepsTable{
				Name:      name,
				DependsOn: g.Parents(name),
				UsedBy:    g.Children(name),
			}
			if node, ok := g.Node(name); ok {
				dt.Kind = string(node.Kind)
				dt.Created = node.Created
			}
			dl.Tables = append(dl.Tables, dt)
		}
		out.Levels = append(out.Levels, dl)
	}
	return out
}
