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

import "errors"

var (
	// ErrUndeclaredProperty is returned when a property name is not part of the schema.
	ErrUndeclaredProperty = errors.New("model: undeclared property")

	// ErrReadOnlyProperty is returned when a read-only property is written through the public setter.
	ErrReadOnlyProperty = errors.New("model: read-only property")

	// ErrUnknownMapping is returned by mapping functions that do not recognise their source.
	ErrUnknownMapping = errors.New("model: unknown mapping")

	// ErrResetNew is returned when resetting an entity that was never attached.
	ErrResetNew = errors.New("model: unable to reset new entity")

	// ErrInvalidSchema is returned for malformed property declarations.
	ErrInvalidSchema = errors.New("model: invalid schema")
)
