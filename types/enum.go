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

package types

// Common illegal/default values used by enums.
const (
	IllegalValue = -1
	IllegalName  = "unknown"
	IllegalDesc  = "unknown"
)

// BaseEnum represents a basic enum contract used by domain types.
type BaseEnum interface {
	IsValid() bool
	Number() int
	String() string
	Desc() string
	Name() string
}

// EnumEntry names one member of an int-backed enum.
type EnumEntry struct {
	Name string
	Desc string
}

// EnumTable resolves names and descriptions for int-backed enums whose
// members are numbered from zero.
type EnumTable []EnumEntry

// Valid reports whether n addresses a member of the table.
func (t EnumTable) Valid(n int) bool { return n >= 0 && n < len(t) }

// Name returns the member name or IllegalName.
func (t EnumTable) Name(n int) string {
	if !t.Valid(n) {
		return IllegalName
	}
	return t[n].Name
}

// Desc returns the member description or IllegalDesc.
func (t EnumTable) Desc(n int) string {
	if !t.Valid(n) {
		return IllegalDesc
	}
	return t[n].Desc
}

// Number returns n for valid members and IllegalValue otherwise.
func (t EnumTable) Number(n int) int {
	if !t.Valid(n) {
		return IllegalValue
	}
	return n
}
