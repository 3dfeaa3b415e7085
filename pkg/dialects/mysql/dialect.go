// Package mysql provides the MySQL SQL dialect definition.
package mysql

import (
	"github.com/leapstack-labs/lineage/pkg/dialect"
)

func init() {
	dialect.Register(MySQL)
}

// MySQL is the MySQL dialect.
var MySQL = dialect.New(Config).Build()
