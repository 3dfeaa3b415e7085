// Package postgres provides the PostgreSQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package postgres

import "github.com/leapstack-labs/lineage/pkg/core"

// Config is the PostgreSQL dialect configuration.
// This is pure data - the Builder reads feature flags and auto-wires
// standard capabilities.
var Config = &core.DialectConfig{
	Name: "postgres",
	Identifiers: core.IdentifierConfig{
		Quote:         `"`,
		QuoteEnd:      `"`,
		Escape:        `""`,
		Normalization: core.NormLowercase, // Postgres normalizes unquoted to lowercase
	},

	// Framework Features (auto-wired by Builder)
	SupportsIlike:        true,
	SupportsCastOperator: true,

	// Function classifications
	Aggregates: []string{
		// Standard aggregates
		"SUM", "COUNT", "AVG", "MIN", "MAX",
		"STDDEV", "STDDEV_POP", "STDDEV_SAMP",
		"VARIANCE", "VAR_POP", "VAR_SAMP",
		// PostgreSQL specific
		"ARRAY_AGG", "STRING_AGG",
		"JSONB_AGG", "JSONB_OBJECT_AGG", "JSON_AGG", "JSON_OBJECT_AGG",
		"BOOL_AND", "BOOL_OR", "EVERY",
		"BIT_AND", "BIT_OR", "BIT_XOR",
		"PERCENTILE_CONT", "PERCENTILE_DISC",
		"MODE",
	},
	Generators: []string{
		// Date/time generators
		"CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME",
		"NOW", "LOCALTIME", "LOCALTIMESTAMP",
		"STATEMENT_TIMESTAMP", "TRANSACTION_TIMESTAMP", "CLOCK_TIMESTAMP",
		// Value generators
		"GEN_RANDOM_UUID", "RANDOM", "PI",
		// System functions
		"CURRENT_SCHEMA", "CURRENT_DATABASE", "CURRENT_CATALOG",
		"CURRENT_USER", "CURRENT_ROLE", "SESSION_USER", "USER",
		"VERSION",
	},
	Windows: []string{
		// Ranking functions
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE",
		"PERCENT_RANK", "CUME_DIST",
		// Value functions
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	},
}
