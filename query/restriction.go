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
package query

import (
	"fmt"

	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/types"
)

// JoinKind tells how a joined restriction combines with its host.
type JoinKind int

const (
	// JoinExclusive requires both restrictions to hold (AND).
	JoinExclusive JoinKind = iota
	// JoinInclusive requires either restriction to hold (OR).
	JoinInclusive
)

var joinTable = types.EnumTable{
	{Name: "exclusive", Desc: "AND"},
	{Name: "inclusive", Desc: "OR"},
}

var _ types.BaseEnum = JoinExclusive

func (k JoinKind) IsValid() bool  { return joinTable.Valid(int(k)) }
func (k JoinKind) Number() int    { return joinTable.Number(int(k)) }
func (k JoinKind) String() string { return joinTable.Name(int(k)) }
func (k JoinKind) Desc() string   { return joinTable.Desc(int(k)) }
func (k JoinKind) Name() string   { return joinTable.Name(int(k)) }

// RestrictionType declares the queryable properties of one type. The id
// property is always declared first.
type RestrictionType struct {
	schema *model.Schema
}

// NewRestrictionType validates the property names and returns the type.
func NewRestrictionType(name model.TypeName, properties ...string) (*RestrictionType, error) {
	props := []model.Property{model.Scalar(model.IDProperty)}
	for _, p := range properties {
		if p != model.IDProperty {
			props = append(props, model.Scalar(p))
		}
	}
	schema, err := model.NewSchema(name, props...)
	if err != nil {
		return nil, err
	}
	return &RestrictionType{schema: schema}, nil
}

// MustRestrictionType is like NewRestrictionType but panics.
func MustRestrictionType(name model.TypeName, properties ...string) *RestrictionType {
	t, err := NewRestrictionType(name, properties...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *RestrictionType) TypeName() model.TypeName { return t.schema.TypeName() }

func (t *RestrictionType) Schema() *model.Schema { return t.schema }

// Create returns an empty restriction of this type.
func (t *RestrictionType) Create() *Restriction {
	return &Restriction{Store: model.NewStore(t.schema), typ: t}
}

// Named pairs an expression with the property it constrains.
type Named struct {
	Property   string
	Expression *Expression
}

// Restriction holds at most one expression per declared property and at
// most one joined restriction per join kind.
type Restriction struct {
	model.Store
	typ   *RestrictionType
	joins map[JoinKind]*Restriction
}

var _ model.ValueObject = (*Restriction)(nil)

// Type returns the restriction's declaring type.
func (r *Restriction) Type() *RestrictionType { return r.typ }

// Set constrains a property; a nil expression clears the constraint.
func (r *Restriction) Set(name string, e *Expression) error {
	if err := r.Store.Set(name, e); err != nil {
		return fmt.Errorf("unable to restrict %s: %w", r.TypeName(), err)
	}
	return nil
}

// Where builds the expression and sets it.
func (r *Restriction) Where(name string, op Operator, value interface{}) error {
	e, err := New(op, value)
	if err != nil {
		return fmt.Errorf("unable to restrict %s.%s: %w", r.TypeName(), name, err)
	}
	return r.Set(name, e)
}

// Expression returns the expression set on name, if any.
func (r *Restriction) Expression(name string) (*Expression, bool) {
	v, err := r.Store.Get(name)
	if err != nil {
		return nil, false
	}
	e, ok := v.(*Expression)
	return e, ok && e != nil
}

// Expressions returns the set expressions in declaration order.
func (r *Restriction) Expressions() []Named {
	var out []Named
	for _, p := range r.typ.schema.Properties() {
		if e, ok := r.Expression(p.Name); ok {
			out = append(out, Named{Property: p.Name, Expression: e})
		}
	}
	return out
}

// Restrictions returns the restriction joined with kind.
func (r *Restriction) Restrictions(kind JoinKind) (*Restriction, bool) {
	j, ok := r.joins[kind]
	return j, ok
}

// Join records other under kind, replacing any earlier join of that kind.
func (r *Restriction) Join(other *Restriction, kind JoinKind) {
	if r.joins == nil {
		r.joins = make(map[JoinKind]*Restriction)
	}
	r.joins[kind] = other
}

// IsEmpty reports whether neither expressions nor joins are set.
func (r *Restriction) IsEmpty() bool {
	return len(r.Expressions()) == 0 && len(r.joins) == 0
}

// IDIn returns a restriction of t matching the given ids.
func IDIn(t *RestrictionType, ids []int64) (*Restriction, error) {
	r := t.Create()
	if err := r.Where(model.IDProperty, OpIn, ids); err != nil {
		return nil, err
	}
	return r, nil
}
