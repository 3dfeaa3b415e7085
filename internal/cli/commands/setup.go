package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/cli/config"
	"github.com/leapstack-labs/lineage/internal/cli/output"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the command's environment.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables. The fallback keeps commands usable when they run
// outside the root command, as in tests.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	return &config.Config{
		Dialect:      getEnvOrDefault("LINEAGE_DIALECT", config.DefaultDialect),
		OutputFormat: getEnvOrDefault("LINEAGE_OUTPUT", config.DefaultOutput),
		SchemaPath:   os.Getenv("LINEAGE_SCHEMA"),
		SchemaDB:     os.Getenv("LINEAGE_SCHEMA_DB"),
		Verbose:      os.Getenv("LINEAGE_VERBOSE") == "true",
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
