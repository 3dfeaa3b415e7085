package dialect

import "github.com/leapstack-labs/lineage/pkg/token"

// Dialect-specific token types, registered once at package init.
// Concrete dialects wire these through the builder; the parser matches
// on them when the active dialect enables the corresponding feature.
var (
	TokenIlike  = token.Register("ILIKE")
	TokenDColon = token.Register("::")
	TokenEngine = token.Register("ENGINE")
	TokenView   = token.Register("VIEW")
)
