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
	"reflect"
)

// Expression is one predicate on one property: a normalized operator and
// its operand values. Is and IsNot are stored as In and NotIn.
type Expression struct {
	op     Operator
	values []Value
	list   bool
}

// New builds an expression. value is a scalar or a slice of scalars;
// []byte is not accepted as either.
func New(op Operator, value interface{}) (*Expression, error) {
	values, list, err := normalize(value)
	if err != nil {
		return nil, fmt.Errorf("unable to create expression: %w", err)
	}
	e := &Expression{values: values, list: list}
	if err := e.setOperator(op); err != nil {
		return nil, fmt.Errorf("unable to create expression: %w", err)
	}
	return e, nil
}

// Must is like New but panics; meant for statically known predicates.
func Must(op Operator, value interface{}) *Expression {
	e, err := New(op, value)
	if err != nil {
		panic(err)
	}
	return e
}

func normalize(value interface{}) ([]Value, bool, error) {
	if _, isBytes := value.([]byte); isBytes {
		return nil, false, fmt.Errorf("%w: type []byte is not supported", ErrInvalidValue)
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		v, err := NewValue(value)
		if err != nil {
			return nil, false, err
		}
		return []Value{v}, false, nil
	}
	values := make([]Value, rv.Len())
	for i := range values {
		v, err := NewValue(rv.Index(i).Interface())
		if err != nil {
			return nil, true, err
		}
		values[i] = v
	}
	return values, true, nil
}

func (e *Expression) setOperator(op Operator) error {
	switch op {
	case OpIs, OpIn:
		e.op = OpIn
	case OpIsNot, OpNotIn:
		e.op = OpNotIn
	case OpBetween, OpNotBetween:
		if !e.list {
			return fmt.Errorf("%w: %s requires a second value", ErrInvalidOperator, op)
		}
		if len(e.values) != 2 {
			return fmt.Errorf("%w: %s requires exactly 2 values, %d provided", ErrInvalidOperator, op, len(e.values))
		}
		if e.values[0].raw != e.values[1].raw {
			e.op = op
			return nil
		}
		e.values = e.values[:1]
		e.op = OpIn
		if op == OpNotBetween {
			e.op = OpNotIn
		}
	default:
		if !op.IsValid() {
			return fmt.Errorf("%w: %d", ErrInvalidOperator, int(op))
		}
		if e.list {
			return fmt.Errorf("%w: %s requires exactly 1 value, %d provided", ErrInvalidOperator, op, len(e.values))
		}
		e.op = op
		return nil
	}
	e.list = true
	return nil
}

// Operator returns the normalized operator.
func (e *Expression) Operator() Operator { return e.op }

// Values returns a copy of the operands.
func (e *Expression) Values() []Value {
	out := make([]Value, len(e.values))
	copy(out, e.values)
	return out
}

// Value returns the first operand.
func (e *Expression) Value() Value {
	if len(e.values) == 0 {
		return Value{}
	}
	return e.values[0]
}

// IsList reports whether the operands form a list (In, NotIn, Between, NotBetween).
func (e *Expression) IsList() bool { return e.list }

func (e *Expression) String() string {
	if !e.list {
		return fmt.Sprintf("%s %s", e.op, e.Value())
	}
	return fmt.Sprintf("%s %v", e.op, e.values)
}
