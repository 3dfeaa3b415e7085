package token

import "sync/atomic"

// nextTokenID tracks the next available dynamic token ID.
// Dynamic tokens start after maxBuiltin (999).
var nextTokenID = int32(maxBuiltin)

// dynamicTokens maps registered dynamic tokens to their names.
var dynamicTokens = make(map[TokenType]string)

// dynamicKeywords maps registered dynamic keyword names to their token types.
var dynamicKeywords = make(map[string]TokenType)

// Register registers a new dynamic token with the given name.
// Dialects use this for dialect-specific keywords (ENGINE, ILIKE, VIEW, ...).
// Registration happens at init() time; concurrent registration of the same
// name is not supported.
func Register(name string) TokenType {
	id := atomic.AddInt32(&nextTokenID, 1)
	t := TokenType(id)

	dynamicTokens[t] = name
	dynamicKeywords[name] = t

	return t
}

// getDynamicName returns the name of a dynamic token.
func getDynamicName(t TokenType) (string, bool) {
	name, ok := dynamicTokens[t]
	return name, ok
}

// IsDynamic returns true if the token type is a dynamically registered token.
func IsDynamic(t TokenType) bool {
	return t > maxBuiltin
}
