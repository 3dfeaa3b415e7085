package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/cli/output"
	"github.com/leapstack-labs/lineage/pkg/dialect"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the registered SQL dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContext(cmd)
			r := cmdCtx.Renderer

			names := dialect.List()
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string][]string{"dialects": names})
			}
			for _, name := range names {
				line := name
				if name == cmdCtx.Cfg.Dialect {
					line += " (default)"
				}
				r.Println(line)
			}
			return nil
		},
	}
}
