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
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
)

// RelationColumnSuffix is appended to a table name to name the column that
// references rows of that table.
const RelationColumnSuffix = "Id"

var (
	// ErrUnknownMapping is model.ErrUnknownMapping, re-exported for callers
	// that only import this package.
	ErrUnknownMapping = model.ErrUnknownMapping

	// ErrInvalidBinding is returned when a registry binding fails validation.
	ErrInvalidBinding = errors.New("mapper: invalid binding")
)

// Mapper resolves type associations. All methods are pure functions of the
// identity and fail with an error wrapping ErrUnknownMapping.
type Mapper interface {
	EntityType(of model.TypeName) (*model.EntityType, error)
	RestrictionType(of model.TypeName) (*query.RestrictionType, error)
	// RowType resolves the row of a type for a connection identity.
	RowType(of model.TypeName, connection string) (*model.RowType, error)
	RelationColumn(of model.TypeName) (string, error)
}

// TableNamer is implemented by mappers that know the backend table of a type.
type TableNamer interface {
	TableName(of model.TypeName) (string, error)
}

// Namespace returns identity without its last slash separated segment.
func Namespace(identity string) (string, error) {
	i := strings.LastIndex(identity, "/")
	if i <= 0 {
		return "", fmt.Errorf("%w: %q has no namespace", ErrUnknownMapping, identity)
	}
	return identity[:i], nil
}

// Backend returns the innermost namespace segment of a connection identity,
// e.g. "sqlite" for "homebase/database/sqlite/connection".
func Backend(connection string) (string, error) {
	ns, err := Namespace(connection)
	if err != nil {
		return "", err
	}
	return ns[strings.LastIndex(ns, "/")+1:], nil
}
