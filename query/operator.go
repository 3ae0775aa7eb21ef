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

	"github.com/tomoncle/homebase/types"
)

// Operator is a comparison operator of an Expression.
type Operator int

const (
	OpIs Operator = iota
	OpIsNot
	OpIn
	OpNotIn
	OpGreater
	OpGreaterOrEqual
	OpLess
	OpLessOrEqual
	OpBetween
	OpNotBetween
)

var operatorTable = types.EnumTable{
	{Name: "=", Desc: "is"},
	{Name: "!=", Desc: "is not"},
	{Name: "IN", Desc: "is in"},
	{Name: "NOT IN", Desc: "is not in"},
	{Name: ">", Desc: "is greater than"},
	{Name: ">=", Desc: "is greater than or equal"},
	{Name: "<", Desc: "is less than"},
	{Name: "<=", Desc: "is less than or equal"},
	{Name: "BETWEEN", Desc: "is between"},
	{Name: "NOT BETWEEN", Desc: "is not between"},
}

var _ types.BaseEnum = OpIs

func (o Operator) IsValid() bool  { return operatorTable.Valid(int(o)) }
func (o Operator) Number() int    { return operatorTable.Number(int(o)) }
func (o Operator) String() string { return operatorTable.Name(int(o)) }
func (o Operator) Desc() string   { return operatorTable.Desc(int(o)) }
func (o Operator) Name() string   { return operatorTable.Name(int(o)) }

// ParseOperator returns the operator written as s, e.g. "NOT IN".
func ParseOperator(s string) (Operator, error) {
	for i, e := range operatorTable {
		if e.Name == s {
			return Operator(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOperator, s)
}
