package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/lineage/internal/cli/output"
	"github.com/leapstack-labs/lineage/pkg/analyzer"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &InputOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [sql]",
		Short: "Resolve column-level lineage for SQL statements",
		Long: `Parse SQL statements and report where every output column comes from.

Each statement's output columns map back to the physical source columns
that feed them, through CTEs, subqueries, set operations, and the virtual
tables created by earlier CREATE TABLE ... AS statements in the same input.

Per-statement problems (unknown tables, unparseable statements) are
reported in the output without failing the command.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Analyze a query inline
  lineage analyze "SELECT id, name FROM core.users"

  # Analyze a file with frontmatter
  lineage analyze --file query.sql

  # Read from stdin with an explicit dialect
  cat query.sql | lineage analyze --file - --dialect postgres

  # Machine-readable output
  lineage analyze --file query.sql --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	addInputFlags(cmd, opts)
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *InputOptions) error {
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

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(res)
	case output.ModeMarkdown:
		analysisMarkdown(r, res)
	default:
		analysisText(r, res)
	}
	return nil
}

func analysisText(r *output.Renderer, res *analyzer.Result) {
	styles := r.Styles()
	r.Header(1, fmt.Sprintf("Lineage (%s)", res.Dialect))

	for _, stmt := range res.Statements {
		r.Println("")
		r.Header(2, statementTitle(stmt))
		if stmt.Target != nil {
			r.Println("Target: " + styles.TableName.Render(stmt.Target.FullName()))
		}

		if len(stmt.Columns) > 0 {
			t := table.NewWriter()
			t.SetOutputMirror(r.Writer())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"COLUMN", "SOURCES", "REASON", "NOTES"})
			for _, col := range stmt.Columns {
				t.AppendRow(table.Row{
					col.Name,
					formatSources(col.Lineage.Sources),
					string(col.Lineage.Reason),
					lineageNotes(col.Lineage),
				})
			}
			t.Render()
		}

		if len(stmt.Sources) > 0 {
			r.Println(styles.Bold.Render("Sources:"))
			for _, src := range stmt.Sources {
				line := "  " + styles.TableName.Render(src.Name) + " " + styles.Muted.Render("("+string(src.Kind)+")")
				if src.Alias != "" {
					line += " " + styles.Muted.Render("as "+src.Alias)
				}
				r.Println(line)
			}
		}

		for _, j := range stmt.Joins {
			line := "  " + j.Type + " join " + styles.TableName.Render(j.Right.Name)
			if j.Condition != "" {
				line += " " + styles.Muted.Render("on "+j.Condition)
			}
			r.Println(line)
		}

		for _, msg := range stmt.Errors {
			r.Println("  " + styles.Warning.Render("!") + " " + msg)
		}
	}

	if len(res.Errors) > 0 {
		r.Println("")
		r.Header(2, "Warnings")
		for _, issue := range res.Errors {
			r.Println("  " + styles.Warning.Render(string(issue.Code)) + " " + issue.Message)
		}
	}
}

func analysisMarkdown(r *output.Renderer, res *analyzer.Result) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Lineage (%s)", res.Dialect)))

	for _, stmt := range res.Statements {
		r.Println("")
		r.Println(output.FormatHeader(2, statementTitle(stmt)))
		r.Println("")
		if stmt.Target != nil {
			r.Println(output.FormatKeyValue("Target", stmt.Target.FullName()))
			r.Println("")
		}

		if len(stmt.Columns) > 0 {
			r.Println("| Column | Sources | Reason | Notes |")
			r.Println("| --- | --- | --- | --- |")
			for _, col := range stmt.Columns {
				r.Printf("| %s | %s | %s | %s |\n",
					col.Name,
					formatSources(col.Lineage.Sources),
					col.Lineage.Reason,
					lineageNotes(col.Lineage),
				)
			}
			r.Println("")
		}

		if len(stmt.Sources) > 0 {
			r.Println("**Sources**")
			r.Println("")
			for _, src := range stmt.Sources {
				line := fmt.Sprintf("- %s (%s)", src.Name, src.Kind)
				if src.Alias != "" {
					line += " as " + src.Alias
				}
				r.Println(line)
			}
			r.Println("")
		}

		for _, j := range stmt.Joins {
			line := fmt.Sprintf("- %s join %s", j.Type, j.Right.Name)
			if j.Condition != "" {
				line += " on " + j.Condition
			}
			r.Println(line)
		}

		for _, msg := range stmt.Errors {
			r.Println("- Warning: " + msg)
		}
	}

	if len(res.Errors) > 0 {
		r.Println("")
		r.Println(output.FormatHeader(2, "Warnings"))
		r.Println("")
		for _, issue := range res.Errors {
			r.Printf("- **%s**: %s\n", issue.Code, issue.Message)
		}
	}
}

func statementTitle(stmt *analyzer.StatementResult) string {
	return fmt.Sprintf("Statement %d (%s)", stmt.Index+1, stmt.Type)
}

// formatSources joins lineage sources as table.column references. Unbound
// columns render bare.
func formatSources(sources []analyzer.ColumnRef) string {
	if len(sources) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(sources))
	for _, src := range sources {
		if t := src.TableName(); t != "" {
			parts = append(parts, t+"."+src.Name)
		} else {
			parts = append(parts, src.Name)
		}
	}
	return strings.Join(parts, ", ")
}

func lineageNotes(m analyzer.LineageMapping) string {
	var parts []string
	if len(m.Functions) > 0 {
		parts = append(parts, "functions: "+strings.Join(m.Functions, ", "))
	}
	if len(m.Literals) > 0 {
		parts = append(parts, "literals: "+strings.Join(m.Literals, ", "))
	}
	parts = append(parts, m.Notes...)
	return strings.Join(parts, "; ")
}
