// Package mapper resolves, for a type identity, the associated entity, row
// and restriction types and the relation column that links child records to
// it. Registry is the explicit, eagerly validated implementation; Namespace
// derives the associations from slash separated identities.
package mapper
