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
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
	"github.com/tomoncle/homebase/repository"
)

func TestConnectionKind(t *testing.T) {
	conn := newTestConnection(t, 0)
	assert.Equal(t, "homebase/database/sqlite/connection", conn.Kind())
}

func TestConnectionCachesRetrievedRecords(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t, 8)
	_, err := conn.DB().ExecContext(ctx, "INSERT INTO author (name) VALUES ('Frank')")
	require.NoError(t, err)

	q := repository.Query{Kind: repository.RetrieveQuery, Text: `SELECT * FROM author`}
	res, err := conn.Execute(ctx, q)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Frank", res.Records[0]["name"])
	res.Records[0]["name"] = "changed by caller"

	_, err = conn.DB().ExecContext(ctx, "UPDATE author SET name = 'Jane'")
	require.NoError(t, err)

	res, err = conn.Execute(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "Frank", res.Records[0]["name"], "served from cache")

	require.NoError(t, conn.ClearCachedQueryResults(ctx))
	res, err = conn.Execute(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "Jane", res.Records[0]["name"])
}

func TestConnectionReturnsInsertedIDsInOrder(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t, 0)
	_, err := conn.DB().ExecContext(ctx, "INSERT INTO author (name) VALUES ('Frank'), ('Jane')")
	require.NoError(t, err)

	res, err := conn.Execute(ctx, repository.Query{Kind: repository.CreateQuery,
		Text: `INSERT INTO "book" ("title") VALUES ('Dune'), ('Emma'), ('Persuasion') RETURNING "id"`})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, res.IDs)
	assert.Equal(t, int64(3), res.RowCount)

	res, err = conn.Execute(ctx, repository.Query{Kind: repository.RetrieveQuery,
		Text: `SELECT "id", "title" FROM "book" WHERE "title" = 'Emma'`})
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.EqualValues(t, 2, res.Records[0]["id"])

	res, err = conn.Execute(ctx, repository.Query{Kind: repository.RetrieveQuery, Text: `SELECT * FROM "book" WHERE 1 = 0`})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}

func TestConnectionClassifiesFailures(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t, 0)

	_, err := conn.Execute(ctx, repository.Query{Kind: repository.RetrieveQuery, Text: "SELECT * FROM review"})
	assert.ErrorIs(t, err, repository.ErrBadQuery)

	_, err = conn.Execute(ctx, repository.Query{Kind: repository.DeleteQuery, Text: "DELETE FROM book WHERE isbn = 1"})
	assert.ErrorIs(t, err, repository.ErrBadQuery)

	_, err = conn.Execute(ctx, repository.Query{Kind: repository.RetrieveQuery, Text: "SELEC nothing"})
	assert.ErrorIs(t, err, repository.ErrBadQuery)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"mysql syntax", &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}, repository.ErrBadQuery},
		{"mysql missing table", &mysql.MySQLError{Number: 1146, Message: "Table 'x' doesn't exist"}, repository.ErrBadQuery},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, repository.ErrBackendFailure},
		{"postgres syntax", &pq.Error{Code: "42601", Message: "syntax error at or near"}, repository.ErrBadQuery},
		{"postgres missing column", &pq.Error{Code: "42703", Message: "column does not exist"}, repository.ErrBadQuery},
		{"postgres unique", &pq.Error{Code: "23505", Message: "duplicate key value"}, repository.ErrBackendFailure},
		{"sqlite missing column", errors.New("SQL logic error: no such column: isbn (1)"), repository.ErrBadQuery},
		{"connection refused", errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"), repository.ErrBackendFailure},
		{"canceled", context.Canceled, repository.ErrBackendFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t, 16)
	registry := testRegistry()

	authors, err := NewRepositoryWith(conn, registry, authorRepository)
	require.NoError(t, err)
	books, err := NewRepositoryWith(conn, registry, bookRepository)
	require.NoError(t, err)

	frank, err := model.CreateNew(authorEntity, map[string]interface{}{"name": "Frank"})
	require.NoError(t, err)
	jane, err := model.CreateNew(authorEntity, map[string]interface{}{"name": "Jane"})
	require.NoError(t, err)

	persisted, updated, err := authors.PersistEntities(ctx, []*model.Entity{frank, jane})
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
	assert.Zero(t, updated)
	frankID, ok := frank.ID()
	require.True(t, ok)
	janeID, ok := jane.ID()
	require.True(t, ok)
	assert.Equal(t, frankID+1, janeID)

	for _, stmt := range []string{
		"INSERT INTO book (title, authorId) VALUES ('Dune', ?)",
		"INSERT INTO book (title, authorId) VALUES ('Emma', ?)",
		"INSERT INTO book (title, authorId) VALUES ('Persuasion', ?)",
	} {
		id := janeID
		if stmt == "INSERT INTO book (title, authorId) VALUES ('Dune', ?)" {
			id = frankID
		}
		_, err := conn.DB().ExecContext(ctx, stmt, id)
		require.NoError(t, err)
	}
	require.NoError(t, conn.ClearCachedQueryResults(ctx))

	t.Run("singular relation", func(t *testing.T) {
		found, err := books.FindEntities(ctx, restrict(t, bookRestriction, "title", query.OpIs, "Dune"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		for _, book := range found {
			v, err := book.GetContext(ctx, "authorEntity")
			require.NoError(t, err)
			author, ok := v.(*model.Entity)
			require.True(t, ok)
			name, err := author.Get("name")
			require.NoError(t, err)
			assert.Equal(t, "Frank", name)
		}
	})

	t.Run("array relation", func(t *testing.T) {
		found, err := authors.FindEntities(ctx, restrict(t, authorRestriction, "name", query.OpIs, "Jane"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		v, err := found[janeID].GetContext(ctx, "bookEntities")
		require.NoError(t, err)
		related, ok := v.([]*model.Entity)
		require.True(t, ok)
		require.Len(t, related, 2)
		title, err := related[0].Get("title")
		require.NoError(t, err)
		assert.Equal(t, "Emma", title)
	})

	t.Run("update invalidates cached results", func(t *testing.T) {
		byName := restrict(t, authorRestriction, "name", query.OpIs, "Frank")
		found, err := authors.FindEntities(ctx, byName)
		require.NoError(t, err)
		require.NoError(t, found[frankID].Set("name", "Frank Herbert"))

		_, n, err := authors.PersistEntities(ctx, []*model.Entity{found[frankID]})
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		assert.False(t, found[frankID].IsChanged())

		found, err = authors.FindEntities(ctx, byName)
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("delete", func(t *testing.T) {
		n, err := books.DeleteEntities(ctx, restrict(t, bookRestriction, "authorId", query.OpIs, janeID))
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		found, err := books.FindEntities(ctx, bookRestriction.Create())
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("bad query", func(t *testing.T) {
		_, err := conn.DB().ExecContext(ctx, "DROP TABLE book")
		require.NoError(t, err)
		require.NoError(t, conn.ClearCachedQueryResults(ctx))

		_, err = books.FindEntities(ctx, bookRestriction.Create())
		assert.True(t, repository.IsBadQuery(err))
		var qe *repository.QueryError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, `SELECT "book".* FROM "book"`, qe.Query.Text)
	})
}
