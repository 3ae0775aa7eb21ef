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

import (
	"fmt"

	"github.com/tomoncle/homebase/types"
)

const (
	bookEntityName TypeName = "library/book/entity"
	bookRowName    TypeName = "library/book/sqlite/row"
)

var (
	bookType = MustEntityType(
		MustSchema(bookEntityName,
			Scalar("title"),
			ReadOnlyScalar("authorId"),
			One("authorEntity", "library/author/entity"),
			Many("reviewEntities", "library/review/entity"),
		),
		func(vo ValueObject) (map[string]interface{}, error) {
			if vo.TypeName() != bookRowName {
				return nil, fmt.Errorf("%w: %s", ErrUnknownMapping, vo.TypeName())
			}
			return vo.Values(), nil
		},
	)

	bookRow = MustRowType(
		MustSchema(bookRowName, Scalar("id"), Scalar("title"), Scalar("authorId")),
		"sqlite",
	)
)

func loadBook(rec types.Record) (*Entity, error) {
	row, err := CreateFromQueryResult(bookRow, rec)
	if err != nil {
		return nil, err
	}
	return CreateFromValueObject(bookType, row)
}
