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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/homebase/model"
)

var bookRestriction = MustRestrictionType("library/book/restriction", "title", "authorId")

func TestRestrictionTypeDeclaresID(t *testing.T) {
	props := bookRestriction.Schema().Properties()
	require.Len(t, props, 3)
	assert.Equal(t, model.IDProperty, props[0].Name)

	_, err := NewRestrictionType("r", "a", "a")
	assert.ErrorIs(t, err, model.ErrInvalidSchema)
}

func TestRestrictionExpressionsInDeclarationOrder(t *testing.T) {
	r := bookRestriction.Create()
	assert.True(t, r.IsEmpty())
	require.NoError(t, r.Where("authorId", OpIs, 10))
	require.NoError(t, r.Where("id", OpGreater, 2))

	got := r.Expressions()
	require.Len(t, got, 2)
	assert.Equal(t, "id", got[0].Property)
	assert.Equal(t, "authorId", got[1].Property)
	assert.Equal(t, OpIn, got[1].Expression.Operator())
	assert.False(t, r.IsEmpty())

	require.NoError(t, r.Set("id", nil))
	assert.Len(t, r.Expressions(), 1)
}

func TestRestrictionUndeclared(t *testing.T) {
	r := bookRestriction.Create()
	assert.ErrorIs(t, r.Set("isbn", Must(OpIs, 1)), model.ErrUndeclaredProperty)
	assert.ErrorIs(t, r.Where("title", OpBetween, 1), ErrInvalidOperator)
	_, ok := r.Expression("isbn")
	assert.False(t, ok)
}

func TestRestrictionJoin(t *testing.T) {
	author := MustRestrictionType("library/author/restriction", "name")
	r := bookRestriction.Create()
	_, ok := r.Restrictions(JoinExclusive)
	assert.False(t, ok)

	first, err := IDIn(author, []int64{1, 2})
	require.NoError(t, err)
	second := author.Create()
	r.Join(first, JoinExclusive)
	r.Join(second, JoinExclusive)

	got, ok := r.Restrictions(JoinExclusive)
	require.True(t, ok)
	assert.Same(t, second, got)
	_, ok = r.Restrictions(JoinInclusive)
	assert.False(t, ok)
	assert.Equal(t, "AND", JoinExclusive.Desc())
}

func TestRestrictionIsValueObject(t *testing.T) {
	r, err := IDIn(bookRestriction, []int64{3})
	require.NoError(t, err)
	var vo model.ValueObject = r
	assert.Equal(t, model.TypeName("library/book/restriction"), vo.TypeName())
	assert.True(t, vo.PropertyExists("title"))
	v, err := vo.Get("id")
	require.NoError(t, err)
	e := v.(*Expression)
	assert.Equal(t, []Value{{raw: int64(3)}}, e.Values())
}
