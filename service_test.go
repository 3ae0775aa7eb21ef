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
package homebase_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/homebase"
	"github.com/tomoncle/homebase/database"
	"github.com/tomoncle/homebase/examples/library"
	"github.com/tomoncle/homebase/query"
)

func newAuthorService(t *testing.T) homebase.Service[*library.Author] {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	stmts, err := library.Schema("sqlite")
	require.NoError(t, err)
	for _, stmt := range stmts {
		_, err := db.ExecContext(context.Background(), stmt)
		require.NoError(t, err)
	}
	conn, err := database.NewConnection(db, 0, nil)
	require.NoError(t, err)
	authors, _, err := library.Services(conn, library.NewNamespaceMapper())
	require.NoError(t, err)
	return authors
}

func TestService(t *testing.T) {
	ctx := context.Background()
	authors := newAuthorService(t)

	var created []*library.Author
	for _, name := range []string{"Jane Austen", "Frank Herbert", "Ursula K. Le Guin"} {
		a, err := library.NewAuthor(name, time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		created = append(created, a)
	}
	written, updated, err := authors.Persist(ctx, created...)
	require.NoError(t, err)
	assert.Equal(t, created, written)
	assert.Zero(t, updated)

	ids := make([]int64, len(created))
	for i, a := range created {
		id, ok := a.ID()
		require.True(t, ok)
		ids[i] = id
	}

	t.Run("get", func(t *testing.T) {
		a, err := authors.Get(ctx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "Frank Herbert", a.Name())

		_, err = authors.Get(ctx, ids[2]+100)
		assert.ErrorIs(t, err, homebase.ErrNotFound)
	})

	t.Run("find orders by id", func(t *testing.T) {
		r, err := authors.Restriction()
		require.NoError(t, err)
		require.NoError(t, r.Where("id", query.OpGreaterOrEqual, ids[0]))

		found, err := authors.Find(ctx, r)
		require.NoError(t, err)
		require.Len(t, found, 3)
		for i, a := range found {
			id, _ := a.ID()
			assert.Equal(t, ids[i], id)
		}
	})

	t.Run("persist skips unchanged", func(t *testing.T) {
		require.NoError(t, created[0].SetName("Jane"))
		written, n, err := authors.Persist(ctx, created...)
		require.NoError(t, err)
		assert.Equal(t, []*library.Author{created[0]}, written)
		assert.EqualValues(t, 1, n)
	})

	t.Run("delete by id", func(t *testing.T) {
		n, err := authors.DeleteByID(ctx, ids[0], ids[2])
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = authors.DeleteByID(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		r, err := authors.Restriction()
		require.NoError(t, err)
		found, err := authors.Find(ctx, r)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Frank Herbert", found[0].Name())
	})
}

func TestServiceWithoutDatabase(t *testing.T) {
	svc := homebase.NewService(library.AuthorRepository, library.WrapAuthor)
	_, err := svc.Get(context.Background(), 1)
	assert.ErrorContains(t, err, "database not initialized")
	_, err = svc.Restriction()
	assert.Error(t, err)
}
