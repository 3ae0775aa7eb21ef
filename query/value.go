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
	"fmt"
	"math"
	"strconv"
	"time"
)

// TimeLayout is the fixed form temporal operands are rendered to.
const TimeLayout = "2006-01-02 15:04:05"

// Value is one normalized operand: int64, string or nil.
type Value struct {
	raw      interface{}
	escaping bool
}

// NewValue normalizes raw. Numeric types become int64 (floats truncate),
// strings are flagged for escaping, times are rendered with TimeLayout.
func NewValue(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Value{}, nil
	case int:
		return Value{raw: int64(v)}, nil
	case int8:
		return Value{raw: int64(v)}, nil
	case int16:
		return Value{raw: int64(v)}, nil
	case int32:
		return Value{raw: int64(v)}, nil
	case int64:
		return Value{raw: v}, nil
	case uint:
		return unsigned(uint64(v))
	case uint8:
		return Value{raw: int64(v)}, nil
	case uint16:
		return Value{raw: int64(v)}, nil
	case uint32:
		return Value{raw: int64(v)}, nil
	case uint64:
		return unsigned(v)
	case float32:
		return float(float64(v))
	case float64:
		return float(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return Value{raw: n}, nil
		}
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, string(v))
		}
		return float(f)
	case string:
		return Value{raw: v, escaping: true}, nil
	case time.Time:
		return Value{raw: v.Format(TimeLayout)}, nil
	case Value:
		return v, nil
	default:
		return Value{}, fmt.Errorf("%w: type %T is not supported", ErrInvalidValue, raw)
	}
}

func unsigned(v uint64) (Value, error) {
	if v > math.MaxInt64 {
		return Value{}, fmt.Errorf("%w: %d overflows int64", ErrInvalidValue, v)
	}
	return Value{raw: int64(v)}, nil
}

func float(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f <= math.MinInt64 {
		return Value{}, fmt.Errorf("%w: %v is not representable as an integer", ErrInvalidValue, f)
	}
	return Value{raw: int64(f)}, nil
}

// Raw returns the normalized value: int64, string or nil.
func (v Value) Raw() interface{} { return v.raw }

func (v Value) IsNull() bool { return v.raw == nil }

// EscapingRequired reports whether the query builder must quote the value.
func (v Value) EscapingRequired() bool { return v.escaping }

func (v Value) String() string {
	if v.raw == nil {
		return "NULL"
	}
	return fmt.Sprint(v.raw)
}
