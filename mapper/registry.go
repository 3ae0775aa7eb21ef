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
package mapper

import (
	"fmt"
	"sync"

	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
)

// Binding associates one repository identity with its types.
type Binding struct {
	// Name is the repository identity.
	Name        model.TypeName
	Table       string
	Entity      *model.EntityType
	Restriction *query.RestrictionType
	// Rows holds one row type per backend.
	Rows []*model.RowType
	// RelationColumn defaults to Table + "Id".
	RelationColumn string
}

// Identities returns every identity that resolves to the binding.
func (b *Binding) Identities() []model.TypeName {
	ids := []model.TypeName{b.Name, b.Entity.TypeName(), b.Restriction.TypeName()}
	for _, r := range b.Rows {
		ids = append(ids, r.TypeName())
	}
	return ids
}

// Row returns the row type declared for backend.
func (b *Binding) Row(backend string) (*model.RowType, bool) {
	for _, r := range b.Rows {
		if r.Backend() == backend {
			return r, true
		}
	}
	return nil, false
}

func (b *Binding) validate() error {
	if b.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidBinding)
	}
	if b.Table == "" {
		return fmt.Errorf("%w: %s names no table", ErrInvalidBinding, b.Name)
	}
	if b.Entity == nil || b.Restriction == nil {
		return fmt.Errorf("%w: %s needs an entity and a restriction type", ErrInvalidBinding, b.Name)
	}
	if len(b.Rows) == 0 {
		return fmt.Errorf("%w: %s declares no row type", ErrInvalidBinding, b.Name)
	}
	entity := b.Entity.Schema()
	if !b.Restriction.Schema().Has(model.IDProperty) {
		return fmt.Errorf("%w: restriction %s does not declare id", ErrInvalidBinding, b.Restriction.TypeName())
	}
	for _, p := range b.Restriction.Schema().Properties() {
		if ep, ok := entity.Property(p.Name); !ok || ep.Kind.IsRelation() {
			return fmt.Errorf("%w: restriction %s.%s is not a scalar of %s", ErrInvalidBinding, b.Restriction.TypeName(), p.Name, entity.TypeName())
		}
	}
	backends := make(map[string]bool, len(b.Rows))
	for _, r := range b.Rows {
		if r == nil {
			return fmt.Errorf("%w: %s has a nil row type", ErrInvalidBinding, b.Name)
		}
		if backends[r.Backend()] {
			return fmt.Errorf("%w: %s declares two %s rows", ErrInvalidBinding, b.Name, r.Backend())
		}
		backends[r.Backend()] = true
		if !r.Schema().Has(model.IDProperty) {
			return fmt.Errorf("%w: row %s does not declare id", ErrInvalidBinding, r.TypeName())
		}
		for _, p := range r.Schema().Properties() {
			if ep, ok := entity.Property(p.Name); !ok || ep.Kind.IsRelation() {
				return fmt.Errorf("%w: row %s.%s is not a scalar of %s", ErrInvalidBinding, r.TypeName(), p.Name, entity.TypeName())
			}
		}
	}
	if b.RelationColumn == "" {
		b.RelationColumn = b.Table + RelationColumnSuffix
	}
	return nil
}

// Registry is a Mapper over explicitly registered bindings. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	bindings []*Binding
	index    map[model.TypeName]*Binding
}

var (
	_ Mapper     = (*Registry)(nil)
	_ TableNamer = (*Registry)(nil)
)

// NewRegistry registers the bindings and validates that every relation
// references a registered entity type.
func NewRegistry(bindings ...Binding) (*Registry, error) {
	r := &Registry{index: make(map[model.TypeName]*Binding)}
	for _, b := range bindings {
		if err := r.Register(b); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics.
func MustRegistry(bindings ...Binding) *Registry {
	r, err := NewRegistry(bindings...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register validates and adds a binding. No identity may be bound twice.
func (r *Registry) Register(b Binding) error {
	if err := b.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index == nil {
		r.index = make(map[model.TypeName]*Binding)
	}
	for _, id := range b.Identities() {
		if _, dup := r.index[id]; dup {
			return fmt.Errorf("%w: %s is already bound", ErrInvalidBinding, id)
		}
	}
	bound := &b
	for _, id := range b.Identities() {
		r.index[id] = bound
	}
	r.bindings = append(r.bindings, bound)
	return nil
}

// Validate checks that every relation property of every registered entity
// resolves to a binding.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bindings {
		for name, p := range b.Entity.Relations() {
			if _, ok := r.index[p.Related]; !ok {
				return fmt.Errorf("%w: %s.%s references unbound entity %s", ErrInvalidBinding, b.Entity.TypeName(), name, p.Related)
			}
		}
	}
	return nil
}

// Catalog returns the declared types of every binding.
func (r *Registry) Catalog() Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := make(Catalog, len(r.index))
	for _, b := range r.bindings {
		c.Add(b.Entity, b.Restriction)
		for _, row := range b.Rows {
			c.Add(row)
		}
	}
	return c
}

// Binding returns the binding any of whose identities is of.
func (r *Registry) Binding(of model.TypeName) (*Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.index[of]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not bound", ErrUnknownMapping, of)
	}
	return b, nil
}

func (r *Registry) EntityType(of model.TypeName) (*model.EntityType, error) {
	b, err := r.Binding(of)
	if err != nil {
		return nil, fmt.Errorf("unable to get entity type: %w", err)
	}
	return b.Entity, nil
}

func (r *Registry) RestrictionType(of model.TypeName) (*query.RestrictionType, error) {
	b, err := r.Binding(of)
	if err != nil {
		return nil, fmt.Errorf("unable to get restriction type: %w", err)
	}
	return b.Restriction, nil
}

func (r *Registry) RowType(of model.TypeName, connection string) (*model.RowType, error) {
	b, err := r.Binding(of)
	if err != nil {
		return nil, fmt.Errorf("unable to get row type: %w", err)
	}
	backend, err := Backend(connection)
	if err != nil {
		return nil, fmt.Errorf("unable to get row type: %w", err)
	}
	row, ok := b.Row(backend)
	if !ok {
		return nil, fmt.Errorf("unable to get row type: %w: %s has no %s row", ErrUnknownMapping, b.Name, backend)
	}
	return row, nil
}

func (r *Registry) RelationColumn(of model.TypeName) (string, error) {
	b, err := r.Binding(of)
	if err != nil {
		return "", fmt.Errorf("unable to get relation column: %w", err)
	}
	return b.RelationColumn, nil
}

func (r *Registry) TableName(of model.TypeName) (string, error) {
	b, err := r.Binding(of)
	if err != nil {
		return "", fmt.Errorf("unable to get table name: %w", err)
	}
	return b.Table, nil
}
