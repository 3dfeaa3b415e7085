// Package spark provides the Spark SQL dialect definition.
package spark

import (
	"github.com/leapstack-labs/lineage/pkg/dialect"
)

func init() {
	dialect.Register(Spark)
}

// Spark is the Spark SQL dialect.
// LATERAL and OUTER are ordinary keywords; VIEW is wired explicitly so
// the parser can recognize the LATERAL VIEW clause when this dialect
// is active.
var Spark = dialect.New(Config).
	AddKeyword("VIEW", dialect.TokenView).
	Build()
