/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package model

import (
	"fmt"

	"github.com/tomoncle/homebase/types"
)

// MappingFunc maps a value object onto entity property values. It returns
// an error wrapping ErrUnknownMapping when the source type is not known.
type MappingFunc func(vo ValueObject) (map[string]interface{}, error)

// EntityType declares an entity: its schema, with the read-only id first,
// and the mapping from value objects.
type EntityType struct {
	schema          *Schema
	fromValueObject MappingFunc
}

// NewEntityType validates the schema and returns the entity type.
func NewEntityType(schema *Schema, fromValueObject MappingFunc) (*EntityType, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil entity schema", ErrInvalidSchema)
	}
	if fromValueObject == nil {
		return nil, fmt.Errorf("%w: %s has no value object mapping", ErrInvalidSchema, schema.typ)
	}
	withID, err := schema.withID()
	if err != nil {
		return nil, err
	}
	return &EntityType{schema: withID, fromValueObject: fromValueObject}, nil
}

// MustEntityType is like NewEntityType but panics on invalid declarations.
func MustEntityType(schema *Schema, fromValueObject MappingFunc) *EntityType {
	t, err := NewEntityType(schema, fromValueObject)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *EntityType) TypeName() TypeName { return t.schema.typ }

func (t *EntityType) Schema() *Schema { return t.schema }

// Relations returns the relation properties keyed by name.
func (t *EntityType) Relations() map[string]Property { return t.schema.Relations() }

// Entity is a domain object with identity, dirty tracking and lazily
// resolved relation properties.
type Entity struct {
	Store
	typ *EntityType
}

func newEntity(t *EntityType) *Entity {
	return &Entity{Store: NewStore(t.schema), typ: t}
}

// CreateFromValueObject builds an attached entity from a row or another
// value object.
func CreateFromValueObject(t *EntityType, vo ValueObject) (*Entity, error) {
	e := newEntity(t)
	props, err := t.fromValueObject(vo)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s from %s: %w", t.TypeName(), vo.TypeName(), err)
	}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	if err := e.checkDeclared(names); err != nil {
		return nil, fmt.Errorf("unable to create %s from %s: %w", t.TypeName(), vo.TypeName(), err)
	}
	for name, value := range props {
		e.assign(name, value)
	}
	e.normalizeID()
	e.rebaseline()
	return e, nil
}

// CreateNew builds a new, unattached entity. The id may not be supplied.
func CreateNew(t *EntityType, props map[string]interface{}) (*Entity, error) {
	e := newEntity(t)
	for name, value := range props {
		if err := e.Set(name, value); err != nil {
			return nil, fmt.Errorf("unable to create new %s: %w", t.TypeName(), err)
		}
	}
	return e, nil
}

// Type returns the entity's declaring type.
func (e *Entity) Type() *EntityType { return e.typ }

// Base returns the entity itself, so *Entity and types embedding it share
// one accessor.
func (e *Entity) Base() *Entity { return e }

// Relations returns the declared relation properties keyed by name.
func (e *Entity) Relations() map[string]Property { return e.typ.Relations() }

// Attach writes the given properties, read-only ones included, and takes a
// new snapshot of the current values. Resolver values are bound to the
// relation's lazy cell. Nothing is written if any name is undeclared.
func (e *Entity) Attach(props map[string]interface{}) error {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	if err := e.checkDeclared(names); err != nil {
		return fmt.Errorf("unable to attach to %s: %w", e.TypeName(), err)
	}
	for name, value := range props {
		e.assign(name, value)
	}
	e.normalizeID()
	e.rebaseline()
	return nil
}

// ID returns the identity, if assigned.
func (e *Entity) ID() (int64, bool) {
	v, ok := e.values[IDProperty]
	if !ok || v == nil {
		return 0, false
	}
	return types.ToInt64(v)
}

// IsNew reports whether the entity has no identity yet.
func (e *Entity) IsNew() bool {
	_, ok := e.ID()
	return !ok
}

// IsChanged reports whether any property differs from the snapshot.
func (e *Entity) IsChanged() bool {
	for _, p := range e.schema.properties {
		if e.IsPropertyChanged(p.Name) {
			return true
		}
	}
	return false
}

// ChangedProperties returns the names of changed properties in declaration order.
func (e *Entity) ChangedProperties() []string {
	var out []string
	for _, p := range e.schema.properties {
		if e.IsPropertyChanged(p.Name) {
			out = append(out, p.Name)
		}
	}
	return out
}

// Reset restores the named properties, or all when none are named, to the
// last attached state. Relation properties among them are invalidated so the
// next read resolves again.
func (e *Entity) Reset(names ...string) error {
	if e.IsNew() {
		return fmt.Errorf("%w: %s", ErrResetNew, e.TypeName())
	}
	if err := e.checkDeclared(names); err != nil {
		return fmt.Errorf("unable to reset %s: %w", e.TypeName(), err)
	}
	if len(names) == 0 {
		for _, p := range e.schema.properties {
			names = append(names, p.Name)
		}
	}
	for _, name := range names {
		if l, ok := e.lazy[name]; ok {
			l.Invalidate()
			continue
		}
		if orig, had := e.original[name]; had {
			e.values[name] = orig
		} else {
			delete(e.values, name)
		}
	}
	return nil
}

// normalizeID stores integer ids as int64 so they key maps consistently.
func (e *Entity) normalizeID() {
	if v, ok := e.values[IDProperty]; ok && v != nil {
		if id, ok := types.ToInt64(v); ok {
			e.values[IDProperty] = id
		}
	}
}
