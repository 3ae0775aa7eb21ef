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

package repository

import (
	"context"

	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
	"github.com/tomoncle/homebase/types"
)

// QueryKind is the kind of statement a Query carries.
type QueryKind int

const (
	CreateQuery QueryKind = iota
	RetrieveQuery
	UpdateQuery
	DeleteQuery
)

var queryKindTable = types.EnumTable{
	{Name: "create", Desc: "returns inserted ids"},
	{Name: "retrieve", Desc: "returns records"},
	{Name: "update", Desc: "returns affected row count"},
	{Name: "delete", Desc: "returns affected row count"},
}

var _ types.BaseEnum = CreateQuery

func (k QueryKind) IsValid() bool  { return queryKindTable.Valid(int(k)) }
func (k QueryKind) Number() int    { return queryKindTable.Number(int(k)) }
func (k QueryKind) String() string { return queryKindTable.Name(int(k)) }
func (k QueryKind) Desc() string   { return queryKindTable.Desc(int(k)) }
func (k QueryKind) Name() string   { return queryKindTable.Name(int(k)) }

// Query is a built statement ready for a Connection.
type Query struct {
	Kind QueryKind
	Text string
	// Type is the row or restriction type the statement was built from.
	Type model.TypeName
}

func (q Query) String() string { return q.Text }

// Result is what a Connection returns for a Query. Only the member that
// matches the query kind is meaningful.
type Result struct {
	RowCount int64
	IDs      []int64
	Records  []types.Record
}

// Connection executes queries against a backend.
type Connection interface {
	// Kind identifies the connection, e.g. "homebase/database/mysql/connection".
	// Its innermost namespace segment selects row types.
	Kind() string
	// Execute fails with errors wrapping ErrBadQuery or ErrBackendFailure.
	Execute(ctx context.Context, q Query) (Result, error)
	ClearCachedQueryResults(ctx context.Context) error
}

// QueryBuilder turns rows and restrictions into queries. Failures are
// treated as bad queries.
type QueryBuilder interface {
	CreateQuery(rows []*model.Row) (Query, error)
	RetrieveQuery(restrictions []*query.Restriction) (Query, error)
	UpdateQuery(rows []*model.Row) (Query, error)
	DeleteQuery(restrictions []*query.Restriction) (Query, error)
}

// Storage is the entity level contract of a repository.
type Storage interface {
	FindEntities(ctx context.Context, restrictions ...*query.Restriction) (map[int64]*model.Entity, error)
	PersistEntities(ctx context.Context, entities []*model.Entity) ([]*model.Entity, int64, error)
	DeleteEntities(ctx context.Context, restrictions ...*query.Restriction) (int64, error)
}

// Logger is the structured logger a repository writes to. Fields are
// alternating keys and values.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}
