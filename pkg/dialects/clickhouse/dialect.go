// Package clickhouse provides the ClickHouse SQL dialect definition.
package clickhouse

import (
	"github.com/leapstack-labs/lineage/pkg/dialect"
)

func init() {
	dialect.Register(ClickHouse)
}

// ClickHouse is the ClickHouse dialect.
// Builder reads Config flags and auto-wires standard features:
// - :: cast operator (SupportsCastOperator)
// ENGINE is wired explicitly because only ClickHouse treats it as a
// keyword inside CREATE TABLE ... AS SELECT.
var ClickHouse = dialect.New(Config).
	AddKeyword("ENGINE", dialect.TokenEngine).
	Build()
