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
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/tomoncle/homebase/types"
)

// ValueObject is the read side of a property store. Rows and restrictions
// are value objects; entities are created from them.
type ValueObject interface {
	TypeName() TypeName
	PropertyExists(name string) bool
	Get(name string) (interface{}, error)
	Values() map[string]interface{}
}

// Store maps declared property names to current values, keeps the snapshot
// taken at the last attach for dirty tracking, and owns one Lazy cell per
// relation property. A Store is not safe for concurrent use.
type Store struct {
	schema   *Schema
	values   map[string]interface{}
	original map[string]interface{}
	lazy     map[string]*Lazy
}

// NewStore returns an empty store for the schema.
func NewStore(schema *Schema) Store {
	s := Store{
		schema: schema,
		values: make(map[string]interface{}),
		lazy:   make(map[string]*Lazy),
	}
	for _, p := range schema.properties {
		if p.Kind.IsRelation() {
			s.lazy[p.Name] = &Lazy{}
		}
	}
	return s
}

// TypeName returns the name of the declaring type.
func (s *Store) TypeName() TypeName { return s.schema.typ }

// Schema returns the declarations backing the store.
func (s *Store) Schema() *Schema { return s.schema }

// Properties returns the declarations in declaration order.
func (s *Store) Properties() []Property { return s.schema.Properties() }

func (s *Store) PropertyExists(name string) bool { return s.schema.Has(name) }

// IsPropertyReadable reports whether the property is declared and readable.
// Every declared access mode permits reading.
func (s *Store) IsPropertyReadable(name string) bool {
	p, ok := s.schema.Property(name)
	return ok && p.Access.IsValid()
}

func (s *Store) IsPropertyWritable(name string) bool {
	p, ok := s.schema.Property(name)
	return ok && p.Access == ReadWrite
}

// IsPropertySet reports whether a scalar property holds a value, nil included,
// or a relation property has a bound or resolved cell.
func (s *Store) IsPropertySet(name string) bool {
	if l, ok := s.lazy[name]; ok {
		return l.State() != LazyUnbound
	}
	_, ok := s.values[name]
	return ok
}

// IsPropertyChanged compares the current value against the attach-time
// snapshot by value. Relation properties take no part in dirty tracking.
func (s *Store) IsPropertyChanged(name string) bool {
	p, ok := s.schema.Property(name)
	if !ok || p.Kind.IsRelation() {
		return false
	}
	cur, set := s.values[name]
	orig, had := s.original[name]
	if set != had {
		return true
	}
	return set && !SameValue(cur, orig)
}

// Get returns the property value, resolving lazy relation properties with a
// background context.
func (s *Store) Get(name string) (interface{}, error) {
	return s.GetContext(context.Background(), name)
}

// GetContext returns the property value; a lazy relation resolver receives ctx.
func (s *Store) GetContext(ctx context.Context, name string) (interface{}, error) {
	if !s.schema.Has(name) {
		return nil, fmt.Errorf("%w: %s.%s", ErrUndeclaredProperty, s.schema.typ, name)
	}
	if l, ok := s.lazy[name]; ok {
		v, err := l.Resolve(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve %s.%s: %w", s.schema.typ, name, err)
		}
		return v, nil
	}
	return s.values[name], nil
}

// Set writes a read-write property.
func (s *Store) Set(name string, value interface{}) error {
	p, ok := s.schema.Property(name)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUndeclaredProperty, s.schema.typ, name)
	}
	if p.Access != ReadWrite {
		return fmt.Errorf("%w: %s.%s", ErrReadOnlyProperty, s.schema.typ, name)
	}
	s.assign(name, value)
	return nil
}

// Lazy returns the cell of a relation property.
func (s *Store) Lazy(name string) (*Lazy, bool) {
	l, ok := s.lazy[name]
	return l, ok
}

// Values returns a copy of the set scalar values.
func (s *Store) Values() map[string]interface{} {
	out := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// assign writes any declared property, bypassing the access mode.
func (s *Store) assign(name string, value interface{}) {
	if l, ok := s.lazy[name]; ok {
		if r, isResolver := value.(Resolver); isResolver {
			l.Bind(r)
		} else {
			l.Assign(value)
		}
		return
	}
	s.values[name] = value
}

func (s *Store) unset(name string) {
	if l, ok := s.lazy[name]; ok {
		l.Bind(nil)
		return
	}
	delete(s.values, name)
}

// rebaseline replaces the snapshot with the current scalar values.
func (s *Store) rebaseline() {
	s.original = make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		s.original[k] = v
	}
}

func (s *Store) checkDeclared(names []string) error {
	for _, name := range names {
		if !s.schema.Has(name) {
			return fmt.Errorf("%w: %s.%s", ErrUndeclaredProperty, s.schema.typ, name)
		}
	}
	return nil
}

// SameValue is the value equality used by dirty tracking: integers compare
// numerically across Go kinds, times with time.Time.Equal, the rest deeply.
func SameValue(a, b interface{}) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if isInteger(a) && isInteger(b) {
		na, _ := types.ToInt64(a)
		nb, _ := types.ToInt64(b)
		return na == nb
	}
	return reflect.DeepEqual(a, b)
}

func isInteger(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}
