// Package mysql provides the MySQL SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package mysql

import "github.com/leapstack-labs/lineage/pkg/core"

// Config is the MySQL dialect configuration.
// This is pure data - the Builder reads feature flags and auto-wires
// standard capabilities.
var Config = &core.DialectConfig{
	Name: "mysql",
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseInsensitive,
	},

	// MySQL treats double-quoted text as string literals unless
	// ANSI_QUOTES is enabled, so backticks are the only identifier quote.

	// Function classifications
	Aggregates: []string{
		// Standard aggregates
		"SUM", "COUNT", "AVG", "MIN", "MAX",
		"STD", "STDDEV", "STDDEV_POP", "STDDEV_SAMP",
		"VARIANCE", "VAR_POP", "VAR_SAMP",
		// MySQL specific
		"GROUP_CONCAT",
		"BIT_AND", "BIT_OR", "BIT_XOR",
		"JSON_ARRAYAGG", "JSON_OBJECTAGG",
	},
	Generators: []string{
		// Date/time generators
		"NOW", "CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME",
		"CURDATE", "CURTIME", "SYSDATE",
		"UTC_DATE", "UTC_TIME", "UTC_TIMESTAMP",
		// Value generators
		"RAND", "UUID", "UUID_SHORT",
		// System functions
		"CONNECTION_ID", "CURRENT_USER", "SESSION_USER", "SYSTEM_USER", "USER",
		"DATABASE", "SCHEMA", "VERSION", "LAST_INSERT_ID", "FOUND_ROWS",
	},
	Windows: []string{
		// Ranking functions (MySQL 8.0+)
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE",
		"PERCENT_RANK", "CUME_DIST",
		// Value functions
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	},

	// MySQL spellings that fold into the canonical lineage vocabulary.
	FunctionSynonyms: map[string]string{
		"IFNULL": "COALESCE",
	},
}
