// Package core holds the pure-data dialect configuration shared by the
// dialect registry and the concrete dialect packages.
//
// DialectConfig carries no behavior: keyword tables, symbol maps, and
// function-classification lookups are built from it by pkg/dialect. The
// package imports only the standard library, so concrete dialects and the
// parser can both depend on it without cycles.
package core
