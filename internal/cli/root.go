// Package cli provides the command-line interface for the lineage analyzer.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/cli/commands"
	"github.com/leapstack-labs/lineage/internal/cli/config"

	// Register the supported SQL dialects.
	_ "github.com/leapstack-labs/lineage/pkg/dialects/clickhouse"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/mysql"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/postgres"
	_ "github.com/leapstack-labs/lineage/pkg/dialects/spark"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.2.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lineage",
		Short: "Column-level SQL lineage analysis",
		Long: `lineage resolves column-level data lineage from SQL statements.

Given one or more SQL statements it determines, for every output column,
which source-table columns it derives from and through which
transformations, and can assemble the result into an exportable
dependency graph.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := slog.New(slog.DiscardHandler)
			if cfg.Verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			ctx := context.WithValue(cmd.Context(), config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Column-level SQL lineage analysis
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./lineage.yaml)")
	rootCmd.PersistentFlags().StringP("dialect", "d", "", "SQL dialect (clickhouse|postgres|spark|mysql)")
	rootCmd.PersistentFlags().String("schema", "", "path to a YAML schema catalog")
	rootCmd.PersistentFlags().String("schema-db", "", "postgres DSN to introspect table schemas from")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"clickhouse", "postgres", "spark", "mysql"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewGraphCommand())
	rootCmd.AddCommand(commands.NewDepsCommand())
	rootCmd.AddCommand(commands.NewViewCommand())
	rootCmd.AddCommand(commands.NewDialectsCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for lineage.

To load completions:

Bash:
  $ source <(lineage completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ lineage completion bash > /etc/bash_completion.d/lineage
  # macOS:
  $ lineage completion bash > $(brew --prefix)/etc/bash_completion.d/lineage

Zsh:
  $ lineage completion zsh > "${fpath[1]}/_lineage"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ lineage completion fish | source

  # To load completions for each session, execute once:
  $ lineage completion fish > ~/.config/fish/completions/lineage.fish

PowerShell:
  PS> lineage completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
