// Package analyzer resolves column-level lineage from SQL statements.
//
// An analysis run parses its input into statements, resolves every output
// column of every statement to the source columns that feed it, and reports
// per-statement sources, joins, set-operation branches, and table
// dependencies. CREATE TABLE ... AS targets become virtual tables visible to
// later statements in the same run, so lineage chains across statements
// collapse to physical tables.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/lineage/pkg/dialect"
	"github.com/leapstack-labs/lineage/pkg/parser"
)

// DefaultDialect is used when Options.Dialect is empty.
const DefaultDialect = "clickhouse"

// ErrEmptyInput reports input that contains no SQL statements at all.
var ErrEmptyInput = errors.New("no SQL statements found in input")

// Options configures one analysis run.
type Options struct {
	// Dialect selects the SQL dialect (defaults to clickhouse).
	Dialect string
	// Catalog optionally supplies known table schemas, enabling star
	// expansion and stricter unqualified-column binding.
	Catalog Catalog
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// run carries the state shared across one analysis: dialect, catalog,
// virtual-table registry, and issue collector. A run is owned by a single
// Analyze call and never shared between concurrent runs.
type run struct {
	dialect  *dialect.Dialect
	catalog  Catalog
	logger   *slog.Logger
	registry *virtualRegistry
	issues   *collector
}

// norm folds an identifier according to the dialect's case policy.
func (r *run) norm(name string) string {
	if name == "" {
		return ""
	}
	return r.dialect.NormalizeName(name)
}

// fillOutputs records a relation's resolved output columns so references
// into it can expand transitively with a single lookup. Duplicate output
// names keep the first occurrence.
func (r *run) fillOutputs(ref *TableRef, cols []OutputColumn) {
	if len(cols) == 0 {
		return
	}
	ref.OutputInputs = make(map[string][]ColumnRef, len(cols))
	for _, col := range cols {
		key := r.norm(col.Name)
		if _, ok := ref.OutputInputs[key]; ok {
			continue
		}
		ref.OutputOrder = append(ref.OutputOrder, key)
		ref.OutputInputs[key] = col.Lineage.Sources
	}
}

// Analyze resolves column-level lineage for every statement in sql.
//
// Statements parse in parallel but resolve strictly in input order, because
// a statement may read virtual tables registered by the CREATE TABLE ... AS
// statements before it. Per-statement problems are recorded on the result
// and never abort the run. Analyze fails only for an unknown dialect, empty
// input, or input in which no statement parses. When ctx expires mid-run the
// statements resolved so far are returned and the rest are marked
// unresolved.
func Analyze(ctx context.Context, sql string, opts Options) (*Result, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Dialect))
	if name == "" {
		name = DefaultDialect
	}
	d, err := dialect.Get(name)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	texts := parser.SplitStatements(sql, d)
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	type outcome struct {
		stmt parser.Statement
		err  error
	}
	parsed := make([]outcome, len(texts))
	var g errgroup.Group
	for i, text := range texts {
		g.Go(func() error {
			stmt, perr := parser.Parse(text, d)
			parsed[i] = outcome{stmt: stmt, err: perr}
			return nil
		})
	}
	// parse errors stay per-statement; the group itself cannot fail
	_ = g.Wait()

	r := &run{
		dialect:  d,
		catalog:  opts.Catalog,
		logger:   logger,
		registry: newVirtualRegistry(),
		issues:   &collector{},
	}
	result := &Result{Dialect: name, Statements: make([]*StatementResult, 0, len(texts))}
	failures := 0
	var firstParseErr error
	for i, p := range parsed {
		if ctx.Err() != nil {
			result.Statements = append(result.Statements, deadlineStatement(i))
			continue
		}
		if p.err != nil {
			failures++
			if firstParseErr == nil {
				firstParseErr = p.err
			}
			msg := p.err.Error()
			r.issues.add(IssueParseFailure, i, msg)
			result.Statements = append(result.Statements, &StatementResult{
				Index:   i,
				Type:    StatementSelect,
				Columns: []OutputColumn{},
				Sources: []SourceInfo{},
				Errors:  []string{msg},
			})
			continue
		}
		logger.Debug("analyzing statement", "index", i, "dialect", name)
		sr := r.analyzeStatement(i, p.stmt)
		result.Statements = append(result.Statements, sr)
		r.registerVirtual(sr)
	}
	if failures == len(texts) {
		return nil, fmt.Errorf("no statement could be parsed: %w", firstParseErr)
	}
	result.Errors = r.issues.issues
	return result, nil
}

// registerVirtual publishes a CREATE TABLE ... AS target as a virtual table
// for the statements after it. A name collision replaces the earlier entry
// and records a warning: last write wins.
func (r *run) registerVirtual(sr *StatementResult) {
	if sr.Target == nil {
		return
	}
	ref := &TableRef{Kind: TableKindVirtual, Database: sr.Target.Database, Name: sr.Target.Name}
	r.fillOutputs(ref, sr.Columns)
	if r.registry.register(ref) {
		r.issues.add(IssueVirtualTableReplaced, sr.Index,
			fmt.Sprintf("virtual table %q replaced by statement %d", ref.FullName(), sr.Index),
			"table", ref.FullName())
	}
}

func deadlineStatement(index int) *StatementResult {
	return &StatementResult{
		Index:   index,
		Type:    StatementSelect,
		Columns: []OutputColumn{},
		Sources: []SourceInfo{},
		Errors:  []string{"unresolved: deadline"},
	}
}
