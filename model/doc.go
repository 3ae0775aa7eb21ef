// Package model implements the property store shared by entities, rows and
// restrictions: declared schemas, dirty tracking against an attach-time
// snapshot, lazily resolved relation properties, and the Entity and Row
// types built on top of it.
package model
