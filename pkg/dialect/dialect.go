// Package dialect provides SQL dialect configuration and function classification.
//
// This package contains the public contract for dialect definitions used by
// the parser and the lineage analyzer. Concrete dialect implementations are
// registered from pkg/dialects/*/ packages.
package dialect

import (
	"strings"

	"github.com/leapstack-labs/lineage/pkg/core"
	"github.com/leapstack-labs/lineage/pkg/token"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// DefaultDatabase qualifies unqualified table names ("" keeps them bare).
	DefaultDatabase string

	// Parsing features
	SupportsLateralView  bool // LATERAL VIEW explode(...) t AS col
	SupportsEngineClause bool // CREATE TABLE ... ENGINE = X ... AS
	SupportsCreateUsing  bool // CREATE TABLE ... USING parquet AS

	// Function classifications (keys normalized to lowercase)
	aggregates map[string]struct{}
	generators map[string]struct{}
	windows    map[string]struct{}

	// synonyms maps lowercase surface names to canonical names (ifnull -> coalesce).
	synonyms map[string]string

	// Lexing behavior
	symbols   map[string]token.TokenType // custom operators: "::" -> DCOLON
	dynamicKw map[string]token.TokenType // custom keywords: "ENGINE" -> ENGINE
}

// FunctionLineageType returns the lineage classification for a function.
// The name is canonicalized through synonyms before lookup, so dialect
// spellings classify the same as their canonical form.
func (d *Dialect) FunctionLineageType(name string) core.LineageType {
	canonical := d.CanonicalFunc(name)

	if _, ok := d.aggregates[canonical]; ok {
		return core.LineageAggregate
	}
	if _, ok := d.generators[canonical]; ok {
		return core.LineageGenerator
	}
	if _, ok := d.windows[canonical]; ok {
		return core.LineageWindow
	}
	return core.LineagePassthrough
}

// CanonicalFunc maps a dialect function spelling to the canonical vocabulary.
// Unknown names are returned lowercased unchanged.
func (d *Dialect) CanonicalFunc(name string) string {
	lower := strings.ToLower(name)
	if canonical, ok := d.synonyms[lower]; ok {
		return canonical
	}
	return lower
}

// IsSynonym returns true if the given name maps to a different canonical name.
func (d *Dialect) IsSynonym(name string) bool {
	lower := strings.ToLower(name)
	canonical, ok := d.synonyms[lower]
	return ok && canonical != lower
}

// IsAggregate returns true if the function is an aggregate function.
func (d *Dialect) IsAggregate(name string) bool {
	return d.FunctionLineageType(name) == core.LineageAggregate
}

// IsGenerator returns true if the function generates values without input columns.
func (d *Dialect) IsGenerator(name string) bool {
	return d.FunctionLineageType(name) == core.LineageGenerator
}

// IsWindow returns true if the function is a window-only function.
func (d *Dialect) IsWindow(name string) bool {
	return d.FunctionLineageType(name) == core.LineageWindow
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// Symbols returns the custom operator map for lexer symbol matching.
func (d *Dialect) Symbols() map[string]token.TokenType {
	return d.symbols
}

// LookupKeyword returns the token type for a dialect keyword.
// Returns IDENT and false if the name is not a dialect keyword.
func (d *Dialect) LookupKeyword(name string) (token.TokenType, bool) {
	if t, ok := d.dynamicKw[strings.ToLower(name)]; ok {
		return t, true
	}
	return token.IDENT, false
}

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
	config  *core.DialectConfig
}

// New creates a dialect builder from a DialectConfig.
// Build() auto-wires function classifications and feature flags from the config.
func New(cfg *core.DialectConfig) *Builder {
	return &Builder{
		config: cfg,
		dialect: &Dialect{
			Name:            cfg.Name,
			Identifiers:     cfg.Identifiers,
			DefaultDatabase: cfg.DefaultDatabase,
			aggregates:      make(map[string]struct{}),
			generators:      make(map[string]struct{}),
			windows:         make(map[string]struct{}),
			synonyms:        make(map[string]string),
			symbols:         make(map[string]token.TokenType),
			dynamicKw:       make(map[string]token.TokenType),
		},
	}
}

// AddOperator registers a custom operator symbol for the lexer.
func (b *Builder) AddOperator(symbol string, t token.TokenType) *Builder {
	b.dialect.symbols[symbol] = t
	return b
}

// AddKeyword registers a dialect keyword for the lexer.
func (b *Builder) AddKeyword(name string, t token.TokenType) *Builder {
	b.dialect.dynamicKw[strings.ToLower(name)] = t
	return b
}

// Synonym registers a function spelling that canonicalizes to another name.
func (b *Builder) Synonym(surface, canonical string) *Builder {
	b.dialect.synonyms[strings.ToLower(surface)] = strings.ToLower(canonical)
	return b
}

// Build returns the constructed dialect, auto-wiring from the config:
// function classifications, synonyms, and the ILIKE / :: features.
func (b *Builder) Build() *Dialect {
	cfg := b.config

	for _, f := range cfg.Aggregates {
		b.dialect.aggregates[strings.ToLower(f)] = struct{}{}
	}
	for _, f := range cfg.Generators {
		b.dialect.generators[strings.ToLower(f)] = struct{}{}
	}
	for _, f := range cfg.Windows {
		b.dialect.windows[strings.ToLower(f)] = struct{}{}
	}
	for surface, canonical := range cfg.FunctionSynonyms {
		b.dialect.synonyms[strings.ToLower(surface)] = strings.ToLower(canonical)
	}

	if cfg.SupportsIlike {
		b.AddKeyword("ILIKE", TokenIlike)
	}
	if cfg.SupportsCastOperator {
		b.AddOperator("::", TokenDColon)
	}

	b.dialect.SupportsLateralView = cfg.SupportsLateralView
	b.dialect.SupportsEngineClause = cfg.SupportsEngineClause
	b.dialect.SupportsCreateUsing = cfg.SupportsCreateUsing

	return b.dialect
}
