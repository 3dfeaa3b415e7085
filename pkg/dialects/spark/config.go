// Package spark provides the Spark SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package spark

import "github.com/leapstack-labs/lineage/pkg/core"

// Config is the Spark SQL dialect configuration.
// This is pure data - the Builder reads feature flags and auto-wires
// standard capabilities.
var Config = &core.DialectConfig{
	Name: "spark",
	Identifiers: core.IdentifierConfig{
		Quote:         "`",
		QuoteEnd:      "`",
		Escape:        "``",
		Normalization: core.NormCaseInsensitive, // Spark folds identifiers for comparison
	},

	// Framework Features (auto-wired by Builder)
	SupportsLateralView: true, // LATERAL VIEW explode(...) t AS col
	SupportsCreateUsing: true, // CREATE TABLE ... USING parquet AS SELECT

	// Function classifications
	Aggregates: []string{
		// Standard aggregates
		"SUM", "COUNT", "AVG", "MIN", "MAX",
		"STDDEV", "STDDEV_POP", "STDDEV_SAMP",
		"VARIANCE", "VAR_POP", "VAR_SAMP",
		// Spark specific
		"COLLECT_LIST", "COLLECT_SET",
		"FIRST", "LAST",
		"APPROX_COUNT_DISTINCT", "APPROX_PERCENTILE",
		"PERCENTILE", "PERCENTILE_APPROX",
		"CORR", "COVAR_POP", "COVAR_SAMP",
		"SKEWNESS", "KURTOSIS",
	},
	Generators: []string{
		// Date/time generators
		"CURRENT_TIMESTAMP", "CURRENT_DATE", "NOW",
		// Value generators
		"RAND", "RANDN", "UUID", "MONOTONICALLY_INCREASING_ID",
		// System functions
		"CURRENT_USER", "CURRENT_DATABASE", "CURRENT_CATALOG",
		"SPARK_PARTITION_ID", "INPUT_FILE_NAME", "VERSION",
	},
	Windows: []string{
		// Ranking functions
		"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE",
		"PERCENT_RANK", "CUME_DIST",
		// Value functions
		"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
	},

	// Spark spellings that fold into the canonical lineage vocabulary.
	FunctionSynonyms: map[string]string{
		"NVL":    "COALESCE",
		"IFNULL": "COALESCE",
	},
}
