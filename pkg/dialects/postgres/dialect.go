// Package postgres provides the PostgreSQL SQL dialect definition.
package postgres

import (
	"github.com/leapstack-labs/lineage/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect.
// Builder reads Config flags and auto-wires standard features:
// - ILIKE operator (SupportsIlike)
// - :: cast operator (SupportsCastOperator)
var Postgres = dialect.New(Config).Build()
