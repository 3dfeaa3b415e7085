package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/catalog"
	"github.com/leapstack-labs/lineage/internal/cli/config"
	"github.com/leapstack-labs/lineage/internal/loader"
	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// InputOptions holds the SQL input flags shared by the analysis commands.
type InputOptions struct {
	SQL  string // inline SQL text
	File string // path to a SQL file, "-" for stdin
}

func addInputFlags(cmd *cobra.Command, opts *InputOptions) {
	cmd.Flags().StringVar(&opts.SQL, "sql", "", "SQL text to analyze")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", `path to a SQL file ("-" reads stdin)`)
}

// resolveInput picks the SQL source: --sql wins, then --file, then the
// positional argument. Every source goes through frontmatter extraction so
// piped files keep their pinned dialect and schema.
func resolveInput(cmd *cobra.Command, args []string, opts *InputOptions) (*loader.Input, error) {
	if opts.SQL != "" && opts.File != "" {
		return nil, errors.New("--sql and --file are mutually exclusive")
	}

	switch {
	case opts.SQL != "":
		return loader.Parse("", opts.SQL)
	case opts.File == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return loader.Parse("<stdin>", string(data))
	case opts.File != "":
		return loader.ReadFile(opts.File)
	case len(args) > 0:
		return loader.Parse("", args[0])
	default:
		return nil, errors.New("no SQL input: pass a query, --sql, or --file")
	}
}

// resolveDialect picks the dialect for an input. An explicit --dialect flag
// wins, then the file's frontmatter, then config.
func resolveDialect(cmd *cobra.Command, cfg *config.Config, in *loader.Input) string {
	if cmd.Root().PersistentFlags().Changed("dialect") {
		return cfg.Dialect
	}
	if in.Dialect != "" {
		return in.Dialect
	}
	return cfg.Dialect
}

// resolveCatalog assembles table schemas for star expansion. Sources merge
// in precedence order: schema file, then live database, then the input's own
// frontmatter. Returns nil when no source is configured.
func resolveCatalog(ctx context.Context, logger *slog.Logger, cfg *config.Config, in *loader.Input) (analyzer.Catalog, error) {
	var cat analyzer.Catalog

	if cfg.SchemaPath != "" {
		fileCat, err := catalog.LoadYAML(cfg.SchemaPath)
		if err != nil {
			return nil, err
		}
		cat = catalog.Merge(cat, fileCat)
	}

	if cfg.SchemaDB != "" {
		intro, err := catalog.Open(ctx, cfg.SchemaDB, logger)
		if err != nil {
			return nil, err
		}
		defer func() { _ = intro.Close() }()

		dbCat, err := intro.Load(ctx)
		if err != nil {
			return nil, err
		}
		cat = catalog.Merge(cat, dbCat)
	}

	return catalog.Merge(cat, in.Schema), nil
}
