// Package types holds small value types shared across packages: the flat
// backend Record and the enum contract used by operators, join kinds and
// property declarations.
package types
