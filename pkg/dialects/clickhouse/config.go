// Package clickhouse provides the ClickHouse SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package clickhouse

import "github.com/leapstack-labs/lineage/pkg/core"

// Config is the ClickHouse dialect configuration.
// This is pure data - the Builder reads feature flags and auto-wires
// standard capabilities. Function lookups are case-insensitive, so the
// lists below use the spellings from the ClickHouse documentation.
var Config = &core.DialectConfig{
	Name: "clickhouse",
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		AltQuote:      `"`, // ClickHouse accepts double quotes too
		Escape:        "``",
		Normalization: core.NormCaseSensitive, // identifiers are case-sensitive
	},

	// Framework Features (auto-wired by Builder)
	SupportsCastOperator: true,
	SupportsEngineClause: true, // CREATE TABLE ... ENGINE = MergeTree() ... AS SELECT

	// Function classifications
	Aggregates: []string{
		// Standard aggregates
		"sum", "count", "avg", "min", "max",
		"stddevPop", "stddevSamp", "varPop", "varSamp",
		// ClickHouse specific
		"any", "anyLast", "anyHeavy",
		"uniq", "uniqExact", "uniqCombined", "uniqHLL12",
		"groupArray", "groupUniqArray", "groupBitAnd", "groupBitOr", "groupBitXor",
		"argMax", "argMin",
		"quantile", "quantiles", "quantileExact", "median",
		"topK", "topKWeighted",
		// -If combinators for the common aggregates
		"sumIf", "countIf", "avgIf", "minIf", "maxIf",
	},
	Generators: []string{
		// Date/time generators
		"now", "now64", "today", "yesterday",
		// Value generators
		"rand", "rand32", "rand64", "generateUUIDv4",
		// System functions
		"currentDatabase", "currentUser", "hostName", "version", "uptime",
	},
	Windows: []string{
		"row_number", "rank", "dense_rank", "ntile",
		"lagInFrame", "leadInFrame",
		"first_value", "last_value", "nth_value",
	},

	// ClickHouse spellings that the lineage vocabulary folds into their
	// canonical names. The surface spelling is still reported alongside.
	FunctionSynonyms: map[string]string{
		"ifNull": "coalesce",
	},
}
