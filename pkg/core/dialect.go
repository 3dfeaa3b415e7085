package core

// DialectConfig holds the static configuration for a SQL dialect.
// This is pure data — no handler functions.
//
// The runtime behavior (keyword registration, symbol tables, function
// classification lookups) lives in pkg/dialect.Dialect, which is built
// from this config.
type DialectConfig struct {
	// Name is the dialect identifier (e.g., "clickhouse", "postgres")
	Name string

	// Identifiers defines quoting and normalization rules
	Identifiers IdentifierConfig

	// DefaultDatabase qualifies unqualified table names when set.
	// All built-in dialects leave it empty so that bare names stay bare
	// and round-trip through lineage output unchanged.
	DefaultDatabase string

	// Framework features (auto-wired by the dialect builder)
	SupportsIlike        bool // ILIKE operator
	SupportsCastOperator bool // :: cast operator
	SupportsLateralView  bool // LATERAL VIEW explode(...) t AS col
	SupportsEngineClause bool // CREATE TABLE ... ENGINE = X ... AS
	SupportsCreateUsing  bool // CREATE TABLE ... USING parquet AS

	// Function classifications (surface names; normalized by the builder)
	Aggregates []string // SUM, COUNT, AVG, ...
	Generators []string // NOW, CURRENT_DATE, ... (no upstream columns)
	Windows    []string // ROW_NUMBER, LAG, ...

	// FunctionSynonyms maps dialect surface names to the canonical
	// vocabulary used by the lineage resolver (e.g., IFNULL -> COALESCE).
	// Keys and values are matched case-insensitively.
	FunctionSynonyms map[string]string
}

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (default SQL behavior).
	NormLowercase NormalizationStrategy = iota
	// NormUppercase normalizes unquoted identifiers to uppercase (Snowflake, Oracle).
	NormUppercase
	// NormCaseSensitive preserves identifier case exactly (ClickHouse).
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (Hive, Spark).
	NormCaseInsensitive
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: ", `
	QuoteEnd      string                // End quote character (usually same as Quote)
	AltQuote      string                // Secondary quote character ("" when the dialect has one style)
	Escape        string                // Escape sequence: "", ``
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}

// LineageType classifies how a function affects column lineage.
type LineageType int

const (
	// LineagePassthrough means all input columns pass through (default).
	LineagePassthrough LineageType = iota
	// LineageAggregate means many rows aggregate to one value.
	LineageAggregate
	// LineageGenerator means the function generates values with no upstream.
	LineageGenerator
	// LineageWindow means the function requires an OVER clause.
	LineageWindow
)

// String returns the string representation of LineageType.
func (t LineageType) String() string {
	switch t {
	case LineagePassthrough:
		return "passthrough"
	case LineageAggregate:
		return "aggregate"
	case LineageGenerator:
		return "generator"
	case LineageWindow:
		return "window"
	default:
		return "unknown"
	}
}
