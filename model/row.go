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
	"time"

	"github.com/tomoncle/homebase/types"
)

// Coercion converts one property value between its backend and entity forms.
type Coercion func(name string, value interface{}) (interface{}, error)

// Identity is the default Coercion.
func Identity(_ string, value interface{}) (interface{}, error) { return value, nil }

// RowType declares the backend-facing row of one entity type for one
// backend kind. Column names equal property names.
type RowType struct {
	schema  *Schema
	backend string

	// ToEntityValue converts a query result value for the entity side.
	ToEntityValue Coercion
	// ToQueryValue converts an entity value for the query side.
	ToQueryValue Coercion
}

// NewRowType validates that the schema is scalar only.
func NewRowType(schema *Schema, backend string) (*RowType, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: nil row schema", ErrInvalidSchema)
	}
	if backend == "" {
		return nil, fmt.Errorf("%w: row %s names no backend", ErrInvalidSchema, schema.typ)
	}
	for _, p := range schema.properties {
		if p.Kind.IsRelation() {
			return nil, fmt.Errorf("%w: row %s declares relation %q", ErrInvalidSchema, schema.typ, p.Name)
		}
	}
	return &RowType{schema: schema, backend: backend, ToEntityValue: Identity, ToQueryValue: Identity}, nil
}

// MustRowType is like NewRowType but panics on invalid declarations.
func MustRowType(schema *Schema, backend string) *RowType {
	t, err := NewRowType(schema, backend)
	if err != nil {
		panic(err)
	}
	return t
}

// WithCoercions replaces the coercion hooks; nil keeps the identity.
func (t *RowType) WithCoercions(toEntity, toQuery Coercion) *RowType {
	if toEntity != nil {
		t.ToEntityValue = toEntity
	}
	if toQuery != nil {
		t.ToQueryValue = toQuery
	}
	return t
}

func (t *RowType) TypeName() TypeName { return t.schema.typ }

func (t *RowType) Schema() *Schema { return t.schema }

// Backend names the backend kind the row is written for, e.g. "mysql".
func (t *RowType) Backend() string { return t.backend }

// PropertiesFromQueryResult maps a flat record onto row properties. Every
// declared column must be present in the record.
func (t *RowType) PropertiesFromQueryResult(rec types.Record) (map[string]interface{}, error) {
	props := make(map[string]interface{}, len(t.schema.properties))
	for _, p := range t.schema.properties {
		raw, ok := rec[p.Name]
		if !ok {
			return nil, fmt.Errorf("%w: no %q column in query result for %s", ErrUnknownMapping, p.Name, t.TypeName())
		}
		v, err := t.ToEntityValue(p.Name, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: convert %s.%s: %v", ErrUnknownMapping, t.TypeName(), p.Name, err)
		}
		props[p.Name] = v
	}
	return props, nil
}

// PropertiesFromEntity maps entity values onto row properties. A new entity
// yields every declared property except the unset id; an attached entity
// yields the id and the changed properties only.
func (t *RowType) PropertiesFromEntity(e *Entity) (map[string]interface{}, error) {
	isNew := e.IsNew()
	props := make(map[string]interface{}, len(t.schema.properties))
	for _, p := range t.schema.properties {
		if !e.PropertyExists(p.Name) {
			return nil, fmt.Errorf("%w: %s has no %q property for %s", ErrUnknownMapping, e.TypeName(), p.Name, t.TypeName())
		}
		if !e.IsPropertyReadable(p.Name) {
			return nil, fmt.Errorf("%w: %s.%s is not readable", ErrUnknownMapping, e.TypeName(), p.Name)
		}
		switch {
		case p.Name == IDProperty && isNew:
			continue
		case p.Name != IDProperty && !isNew && !e.IsPropertyChanged(p.Name):
			continue
		}
		v, err := t.ToQueryValue(p.Name, e.values[p.Name])
		if err != nil {
			return nil, fmt.Errorf("%w: convert %s.%s: %v", ErrUnknownMapping, e.TypeName(), p.Name, err)
		}
		props[p.Name] = v
	}
	return props, nil
}

// Row is the backend-facing flat representation of one entity.
type Row struct {
	Store
	typ *RowType
}

// CreateFromQueryResult builds a row from a flat backend record.
func CreateFromQueryResult(t *RowType, rec types.Record) (*Row, error) {
	props, err := t.PropertiesFromQueryResult(rec)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s from query result: %w", t.TypeName(), err)
	}
	return newRow(t, props), nil
}

// CreateFromEntity builds a row carrying the entity values to write.
func CreateFromEntity(t *RowType, e *Entity) (*Row, error) {
	props, err := t.PropertiesFromEntity(e)
	if err != nil {
		return nil, fmt.Errorf("unable to create %s from %s: %w", t.TypeName(), e.TypeName(), err)
	}
	return newRow(t, props), nil
}

func newRow(t *RowType, props map[string]interface{}) *Row {
	r := &Row{Store: NewStore(t.schema), typ: t}
	for name, value := range props {
		r.assign(name, value)
	}
	return r
}

// Type returns the row's declaring type.
func (r *Row) Type() *RowType { return r.typ }

// Columns returns the set columns in declaration order.
func (r *Row) Columns() []string {
	cols := make([]string, 0, len(r.values))
	for _, p := range r.schema.properties {
		if _, ok := r.values[p.Name]; ok {
			cols = append(cols, p.Name)
		}
	}
	return cols
}

// Record returns the set columns as a flat record.
func (r *Row) Record() types.Record {
	return types.Record(r.Values())
}

// TimeCoercion converts the named columns between UTC strings in layout and
// time.Time. It returns the (toEntity, toQuery) pair for WithCoercions.
func TimeCoercion(layout string, names ...string) (Coercion, Coercion) {
	columns := make(map[string]struct{}, len(names))
	for _, n := range names {
		columns[n] = struct{}{}
	}
	toEntity := func(name string, value interface{}) (interface{}, error) {
		if _, ok := columns[name]; !ok {
			return value, nil
		}
		switch v := value.(type) {
		case string:
			return time.Parse(layout, v)
		case []byte:
			return time.Parse(layout, string(v))
		default:
			return value, nil
		}
	}
	toQuery := func(name string, value interface{}) (interface{}, error) {
		if _, ok := columns[name]; !ok {
			return value, nil
		}
		if v, ok := value.(time.Time); ok {
			return v.UTC().Format(layout), nil
		}
		return value, nil
	}
	return toEntity, toQuery
}
