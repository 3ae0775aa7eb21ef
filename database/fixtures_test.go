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
package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/homebase/mapper"
	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
)

const (
	authorRepository model.TypeName = "library/author/repository"
	bookRepository   model.TypeName = "library/book/repository"
)

func passThrough(vo model.ValueObject) (map[string]interface{}, error) { return vo.Values(), nil }

var (
	authorEntity = model.MustEntityType(model.MustSchema("library/author/entity",
		model.Scalar("name"), model.Many("bookEntities", "library/book/entity")), passThrough)
	authorRestriction = query.MustRestrictionType("library/author/restriction", "name")
	authorRow         = model.MustRowType(model.MustSchema("library/author/sqlite/row",
		model.Scalar("id"), model.Scalar("name")), "sqlite")

	bookEntity = model.MustEntityType(model.MustSchema("library/book/entity",
		model.Scalar("title"), model.ReadOnlyScalar("authorId"), model.One("authorEntity", "library/author/entity")), passThrough)
	bookRestriction = query.MustRestrictionType("library/book/restriction", "title", "authorId")
	bookRow         = model.MustRowType(model.MustSchema("library/book/sqlite/row",
		model.Scalar("id"), model.Scalar("title"), model.Scalar("authorId")), "sqlite")
)

func testBindings() []mapper.Binding {
	return []mapper.Binding{
		{Name: authorRepository, Table: "author", Entity: authorEntity,
			Restriction: authorRestriction, Rows: []*model.RowType{authorRow}},
		{Name: bookRepository, Table: "book", Entity: bookEntity,
			Restriction: bookRestriction, Rows: []*model.RowType{bookRow}},
	}
}

func testRegistry() *mapper.Registry {
	return mapper.MustRegistry(testBindings()...)
}

var schemaSQL = []string{
	"CREATE TABLE author (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)",
	"CREATE TABLE book (id INTEGER PRIMARY KEY AUTOINCREMENT, title TEXT, authorId INTEGER)",
}

// newTestDB opens a file backed sqlite database with the library schema.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range schemaSQL {
		_, err = db.ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
	return db
}

func newTestConnection(t *testing.T, cacheSize int) *Connection {
	t.Helper()
	conn, err := NewConnection(newTestDB(t), cacheSize, NewDefaultLogger("DATABASE-TEST"))
	require.NoError(t, err)
	return conn
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(newTestConnection(t, 0), testRegistry())
	require.NoError(t, err)
	return b
}

func restrict(t *testing.T, typ *query.RestrictionType, name string, op query.Operator, value interface{}) *query.Restriction {
	t.Helper()
	r := typ.Create()
	require.NoError(t, r.Where(name, op, value))
	return r
}
