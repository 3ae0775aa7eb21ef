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

// TypeName identifies an entity, row, restriction or repository type.
type TypeName string

// IDProperty is the identity property every entity declares.
const IDProperty = "id"

// Kind is the declared type tag of a property.
type Kind int

const (
	KindScalar Kind = iota
	KindEntity
	KindEntities
)

var kindTable = types.EnumTable{
	{Name: "scalar", Desc: "plain value"},
	{Name: "entity", Desc: "reference to one entity"},
	{Name: "entities", Desc: "reference to an entity array"},
}

var _ types.BaseEnum = KindScalar

func (k Kind) IsValid() bool  { return kindTable.Valid(int(k)) }
func (k Kind) Number() int    { return kindTable.Number(int(k)) }
func (k Kind) String() string { return kindTable.Name(int(k)) }
func (k Kind) Desc() string   { return kindTable.Desc(int(k)) }
func (k Kind) Name() string   { return kindTable.Name(int(k)) }

// IsRelation reports whether the kind references other entities.
func (k Kind) IsRelation() bool { return k == KindEntity || k == KindEntities }

// Access is the access mode of a property.
type Access int

const (
	ReadWrite Access = iota
	ReadOnly
)

var accessTable = types.EnumTable{
	{Name: "read-write", Desc: "readable and writable"},
	{Name: "read-only", Desc: "readable, written only when attaching"},
}

var _ types.BaseEnum = ReadWrite

func (a Access) IsValid() bool  { return accessTable.Valid(int(a)) }
func (a Access) Number() int    { return accessTable.Number(int(a)) }
func (a Access) String() string { return accessTable.Name(int(a)) }
func (a Access) Desc() string   { return accessTable.Desc(int(a)) }
func (a Access) Name() string   { return accessTable.Name(int(a)) }

// Property declares one named property of a type.
type Property struct {
	Name    string
	Kind    Kind
	Access  Access
	Related TypeName // entity type referenced by relation kinds
}

// Scalar declares a read-write scalar property.
func Scalar(name string) Property {
	return Property{Name: name}
}

// ReadOnlyScalar declares a scalar property that only attaching may write.
func ReadOnlyScalar(name string) Property {
	return Property{Name: name, Access: ReadOnly}
}

// One declares a property referencing a single related entity.
func One(name string, related TypeName) Property {
	return Property{Name: name, Kind: KindEntity, Related: related}
}

// Many declares a property referencing an array of related entities.
func Many(name string, related TypeName) Property {
	return Property{Name: name, Kind: KindEntities, Related: related}
}

// Schema is the ordered, validated property set of one type.
type Schema struct {
	typ        TypeName
	properties []Property
	index      map[string]int
}

// NewSchema validates the declarations and returns the schema.
func NewSchema(typ TypeName, props ...Property) (*Schema, error) {
	if typ == "" {
		return nil, fmt.Errorf("%w: empty type name", ErrInvalidSchema)
	}
	s := &Schema{
		typ:        typ,
		properties: make([]Property, 0, len(props)),
		index:      make(map[string]int, len(props)),
	}
	for _, p := range props {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: %s declares a property without a name", ErrInvalidSchema, typ)
		}
		if _, dup := s.index[p.Name]; dup {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrInvalidSchema, typ, p.Name)
		}
		if !p.Kind.IsValid() || !p.Access.IsValid() {
			return nil, fmt.Errorf("%w: %s.%s has an invalid kind or access mode", ErrInvalidSchema, typ, p.Name)
		}
		if p.Kind.IsRelation() && p.Related == "" {
			return nil, fmt.Errorf("%w: relation %s.%s names no related type", ErrInvalidSchema, typ, p.Name)
		}
		if !p.Kind.IsRelation() && p.Related != "" {
			return nil, fmt.Errorf("%w: scalar %s.%s names a related type", ErrInvalidSchema, typ, p.Name)
		}
		s.index[p.Name] = len(s.properties)
		s.properties = append(s.properties, p)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on invalid declarations.
func MustSchema(typ TypeName, props ...Property) *Schema {
	s, err := NewSchema(typ, props...)
	if err != nil {
		panic(err)
	}
	return s
}

// TypeName returns the type the schema declares.
func (s *Schema) TypeName() TypeName { return s.typ }

// Properties returns the declarations in declaration order.
func (s *Schema) Properties() []Property {
	out := make([]Property, len(s.properties))
	copy(out, s.properties)
	return out
}

// Property returns the declaration for name.
func (s *Schema) Property(name string) (Property, bool) {
	i, ok := s.index[name]
	if !ok {
		return Property{}, false
	}
	return s.properties[i], true
}

// Has reports whether name is declared.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Relations returns the relation declarations keyed by property name.
func (s *Schema) Relations() map[string]Property {
	out := make(map[string]Property)
	for _, p := range s.properties {
		if p.Kind.IsRelation() {
			out[p.Name] = p
		}
	}
	return out
}

// withID returns a schema that declares the read-only id first.
func (s *Schema) withID() (*Schema, error) {
	if p, ok := s.Property(IDProperty); ok {
		if p.Kind != KindScalar {
			return nil, fmt.Errorf("%w: %s.id must be scalar", ErrInvalidSchema, s.typ)
		}
		return s, nil
	}
	return NewSchema(s.typ, append([]Property{ReadOnlyScalar(IDProperty)}, s.properties...)...)
}
