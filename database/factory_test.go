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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/tomoncle/homebase/mapper"
	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
)

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_SLOW_QUERY_TIME", "250ms")
	t.Setenv("DB_CACHE_SIZE", "0")

	cfg := DefaultConnectionConfig()
	cfg.Type = "mysql"
	require.NoError(t, OverrideFromEnv(cfg))
	assert.Equal(t, "mysql", cfg.Type)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 3307, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryTime)
	assert.Zero(t, cfg.CacheSize)

	t.Setenv("DB_PORT", "not a port")
	assert.Error(t, OverrideFromEnv(cfg))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "database.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connection_config:
  type: sqlite
  dbname: library
  connect_timeout: 5s
tables_file: tables.yaml
`), 0o600))
	t.Setenv("DB_NAME", "override")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.ConnectionConfig.Type)
	assert.Equal(t, "override", cfg.ConnectionConfig.DBName)
	assert.Equal(t, 5*time.Second, cfg.ConnectionConfig.ConnectTimeout)
	assert.Equal(t, 256, cfg.ConnectionConfig.CacheSize, "defaults kept")
	assert.Equal(t, "tables.yaml", cfg.TablesFile)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFactoryRejectsUnsupportedType(t *testing.T) {
	_, err := NewDatabaseFactory().CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type")
	_, err = NewDatabaseFactory().CreateFromConfig(nil)
	assert.Error(t, err)
}

func TestManagerLifecycle(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = filepath.Join(t.TempDir(), "library")

	dm := NewDatabaseManager(cfg)
	dm.SetLogger(NewDefaultLogger("DATABASE-TEST"))
	ctx := context.Background()

	assert.Error(t, dm.Ping(ctx))
	assert.False(t, dm.HealthCheck(ctx).Healthy)

	require.NoError(t, dm.Connect(ctx))
	require.NoError(t, dm.Ping(ctx))
	status := dm.HealthCheck(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.NotNil(t, dm.GetDB())

	require.NoError(t, dm.Disconnect())
	assert.Nil(t, dm.GetDB())
}

var registerOnce sync.Once

func TestInitDBWithTablesFile(t *testing.T) {
	registerOnce.Do(func() {
		require.NoError(t, RegisterBindings(testBindings()...))
	})
	dir := t.TempDir()
	tables := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(tables, []byte("tables:\n  library/author: author\n  library/book: book\n"), 0o600))

	cfg := &Config{ConnectionConfig: *DefaultConnectionConfig(), TablesFile: tables}
	cfg.ConnectionConfig.Type = "sqlite"
	cfg.ConnectionConfig.DBName = filepath.Join(dir, "library")

	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		SetMapper(nil)
		_ = CloseDB()
	})
	assert.Same(t, db, GetDB())
	assert.True(t, GetHealthStatus(context.Background()).Healthy)
	assert.IsType(t, &mapper.NamespaceMapper{}, DefaultMapper())

	ctx := context.Background()
	for _, stmt := range schemaSQL {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	authors, err := NewRepository("library/author/repository")
	require.NoError(t, err)
	frank, err := model.CreateNew(authorEntity, map[string]interface{}{"name": "Frank"})
	require.NoError(t, err)
	_, _, err = authors.PersistEntities(ctx, []*model.Entity{frank})
	require.NoError(t, err)

	found, err := authors.FindEntities(ctx, restrict(t, authorRestriction, "name", query.OpIs, "Frank"))
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestQueryHookWritesStatements(t *testing.T) {
	var out bytes.Buffer
	hook := NewQueryHook(&out, true)
	event := &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()}

	hook.AfterQuery(context.Background(), event)
	assert.Contains(t, out.String(), "SELECT 1")

	out.Reset()
	EnableSilent(true)
	defer EnableSilent(false)
	hook.AfterQuery(context.Background(), event)
	assert.Empty(t, out.String())

	EnableSilent(false)
	NewQueryHook(&out, false).AfterQuery(context.Background(), event)
	assert.Empty(t, out.String(), "successful statements are quiet unless verbose")
}
