package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/cli/output"
	"github.com/leapstack-labs/lineage/internal/watch"
	"github.com/leapstack-labs/lineage/pkg/graph"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Input  InputOptions
	Mode   string // graph mode: full, er_columns, tables_only
	Format string // export format: json, mermaid_flowchart, mermaid_er, graphviz_dot
	Out    string // output file, stdout when empty
	Watch  bool   // rebuild when the input file changes
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	opts := &GraphOptions{}
	cmd := &cobra.Command{
		Use:   "graph [sql]",
		Short: "Build an exportable lineage graph",
		Long: `Build a lineage graph from SQL statements and export it.

Modes control granularity: full keeps tables, columns, and expressions;
er_columns keeps tables with their columns; tables_only keeps just the
table-level flow.

Formats: json, mermaid_flowchart, mermaid_er (er_columns and tables_only
modes), and graphviz_dot.`,
		Example: `  # JSON graph of a query
  lineage graph "SELECT id FROM core.users"

  # Mermaid flowchart, written to a file
  lineage graph --file etl.sql --format mermaid_flowchart --out etl.mmd

  # Table-level ER diagram, rebuilt on every save
  lineage graph --file etl.sql --mode tables_only --format mermaid_er --out etl.mmd --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args, opts)
		},
	}

	addInputFlags(cmd, &opts.Input)
	cmd.Flags().StringVar(&opts.Mode, "mode", string(graph.ModeFull), "graph mode: full, er_columns, tables_only")
	cmd.Flags().StringVar(&opts.Format, "format", string(graph.FormatJSON), "export format: json, mermaid_flowchart, mermaid_er, graphviz_dot")
	cmd.Flags().StringVar(&opts.Out, "out", "", "write the export to a file instead of stdout")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "rebuild when the input file changes")

	_ = cmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"full", "er_columns", "tables_only"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "mermaid_flowchart", "mermaid_er", "graphviz_dot"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runGraph(cmd *cobra.Command, args []string, opts *GraphOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	build := func() error {
		in, err := resolveInput(cmd, args, &opts.Input)
		if err != nil {
			return err
		}
		cat, err := resolveCatalog(cmd.Context(), cmdCtx.Logger, cmdCtx.Cfg, in)
		if err != nil {
			return err
		}
		g, err := graph.Build(cmd.Context(), in.SQL, graph.Options{
			Dialect: resolveDialect(cmd, cmdCtx.Cfg, in),
			Mode:    graph.Mode(opts.Mode),
			Catalog: cat,
			Logger:  cmdCtx.Logger,
		})
		if err != nil {
			return err
		}
		export, err := graph.Export(g, graph.Format(opts.Format))
		if err != nil {
			return err
		}
		return writeGraphOutput(r, opts.Out, export)
	}

	if !opts.Watch {
		return build()
	}
	if opts.Input.File == "" || opts.Input.File == "-" {
		return errors.New("--watch requires --file with a real path")
	}
	return watch.Run(cmd.Context(), watch.Options{
		Paths:  []string{opts.Input.File},
		Logger: cmdCtx.Logger,
	}, build)
}

// writeGraphOutput sends an export to the configured destination with a
// single trailing newline.
func writeGraphOutput(r *output.Renderer, path, content string) error {
	content = strings.TrimRight(content, "\n") + "\n"
	if path == "" {
		r.Printf("%s", content)
		return nil
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.Success("Wrote " + path)
	return nil
}
