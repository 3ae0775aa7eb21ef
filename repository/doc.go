// Package repository orchestrates finding, persisting and deleting entities
// through a Mapper, a QueryBuilder and a Connection, and binds relation
// properties to lazily resolved sub-queries.
package repository
