package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/viewer"
	"github.com/leapstack-labs/lineage/pkg/graph"
)

// ViewOptions holds options for the view command.
type ViewOptions struct {
	Input InputOptions
	Mode  string // graph mode: full, er_columns, tables_only
	Port  int    // listen port; 0 falls back to config
}

// NewViewCommand creates the view command.
func NewViewCommand() *cobra.Command {
	opts := &ViewOptions{}
	cmd := &cobra.Command{
		Use:   "view [sql]",
		Short: "Serve the lineage graph in a browser",
		Long: `Build a lineage graph and serve it over HTTP as a rendered diagram.

The page renders client-side, so the server only ships the graph itself.
The raw graph stays available at /graph.json and /graph.mmd.`,
		Example: `  # View a pipeline's lineage on the default port
  lineage view --file etl.sql

  # Table-level view on a custom port
  lineage view --file etl.sql --mode tables_only --port 9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, args, opts)
		},
	}

	addInputFlags(cmd, &opts.Input)
	cmd.Flags().StringVar(&opts.Mode, "mode", string(graph.ModeFull), "graph mode: full, er_columns, tables_only")
	cmd.Flags().IntVarP(&opts.Port, "port", "p", 0, "port to serve on (default from config)")
	return cmd
}

func runView(cmd *cobra.Command, args []string, opts *ViewOptions) error {
	cmdCtx := NewCommandContext(cmd)

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

	port := opts.Port
	if port == 0 {
		port = cmdCtx.Cfg.GetViewConfig().Port
	}
	srv, err := viewer.NewServer(viewer.Config{
		Graph:  g,
		Port:   port,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}
	return srv.Serve(cmd.Context())
}
