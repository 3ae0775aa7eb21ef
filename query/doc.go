// Package query implements the typed predicate algebra: normalized operand
// values, single-property expressions and restrictions that bundle one
// expression per queryable property and can be joined to scope relation
// lookups.
package query
