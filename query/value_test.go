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
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValue(t *testing.T) {
	when := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	cases := []struct {
		name     string
		in       interface{}
		want     interface{}
		escaping bool
	}{
		{"int", 3, int64(3), false},
		{"int8", int8(-3), int64(-3), false},
		{"uint32", uint32(7), int64(7), false},
		{"float truncates", 3.9, int64(3), false},
		{"float32", float32(-2.5), int64(-2), false},
		{"json number", json.Number("42"), int64(42), false},
		{"json float", json.Number("4.2"), int64(4), false},
		{"string", "42", "42", true},
		{"nil", nil, nil, false},
		{"time", when, "2024-03-09 14:05:06", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := NewValue(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.Raw())
			assert.Equal(t, tc.escaping, v.EscapingRequired())
			assert.Equal(t, tc.in == nil, v.IsNull())
		})
	}
}

func TestNewValueRejects(t *testing.T) {
	for _, in := range []interface{}{true, struct{}{}, []byte("x"), map[string]int{}, uint64(math.MaxUint64), math.NaN(), json.Number("x")} {
		_, err := NewValue(in)
		assert.ErrorIs(t, err, ErrInvalidValue, "%T", in)
	}
}

func TestValueString(t *testing.T) {
	v, _ := NewValue(nil)
	assert.Equal(t, "NULL", v.String())
	v, _ = NewValue(12)
	assert.Equal(t, "12", v.String())
}
