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
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"

	"github.com/tomoncle/homebase/repository"
	"github.com/tomoncle/homebase/types"
)

// ConnectionKind returns the identity of connections over db, e.g.
// "homebase/database/mysql/connection".
func ConnectionKind(db *bun.DB) string {
	return "homebase/database/" + db.Dialect().Name().String() + "/connection"
}

// Connection executes repository queries through Bun. Retrieved records are
// cached by query text until the next write.
type Connection struct {
	db     *bun.DB
	kind   string
	cache  *lru.Cache[string, []types.Record]
	logger Logger
}

var _ repository.Connection = (*Connection)(nil)

// NewConnection wraps db. A cacheSize of zero disables the result cache.
func NewConnection(db *bun.DB, cacheSize int, logger Logger) (*Connection, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance not initialized")
	}
	if logger == nil {
		logger = GetLogger()
	}
	c := &Connection{db: db, kind: ConnectionKind(db), logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[string, []types.Record](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create query result cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

func (c *Connection) Kind() string { return c.kind }

// DB returns the underlying Bun database.
func (c *Connection) DB() *bun.DB { return c.db }

func (c *Connection) Execute(ctx context.Context, q repository.Query) (repository.Result, error) {
	id := uuid.NewString()
	start := time.Now()
	c.logger.Debug("executing query", "query_id", id, "kind", q.Kind, "type", q.Type, "query", q.Text)

	res, err := c.execute(ctx, q)
	if err != nil {
		c.logger.Debug("query failed", "query_id", id, "error", err)
		return repository.Result{}, classify(err)
	}
	c.logger.Debug("query executed", "query_id", id, "duration", time.Since(start),
		"records", len(res.Records), "ids", len(res.IDs), "rows", res.RowCount)
	return res, nil
}

func (c *Connection) execute(ctx context.Context, q repository.Query) (repository.Result, error) {
	switch q.Kind {
	case repository.RetrieveQuery:
		records, err := c.retrieve(ctx, q.Text)
		return repository.Result{Records: records}, err
	case repository.CreateQuery:
		ids, err := c.create(ctx, q.Text)
		return repository.Result{IDs: ids, RowCount: int64(len(ids))}, err
	case repository.UpdateQuery, repository.DeleteQuery:
		res, err := c.raw(q.Text).Exec(ctx)
		if err != nil {
			return repository.Result{}, err
		}
		n, err := res.RowsAffected()
		return repository.Result{RowCount: n}, err
	default:
		return repository.Result{}, fmt.Errorf("%w: unknown query kind %d", repository.ErrBadQuery, q.Kind)
	}
}

func (c *Connection) retrieve(ctx context.Context, text string) ([]types.Record, error) {
	if c.cache != nil {
		if records, ok := c.cache.Get(text); ok {
			return cloneRecords(records), nil
		}
	}
	var values []map[string]interface{}
	if err := c.raw(text).Scan(ctx, &values); err != nil {
		return nil, err
	}
	records := toRecords(values)
	if c.cache != nil {
		c.cache.Add(text, cloneRecords(records))
	}
	return records, nil
}

// create returns the inserted ids in ascending order, which is the order of
// the inserted rows for autoincrement keys. Without RETURNING support the
// driver's LastInsertId is the first id of a multi-row insert.
func (c *Connection) create(ctx context.Context, text string) ([]int64, error) {
	if c.db.HasFeature(feature.InsertReturning) {
		var ids []int64
		if err := c.raw(text).Scan(ctx, &ids); err != nil {
			return nil, err
		}
		slices.Sort(ids)
		return ids, nil
	}

	res, err := c.raw(text).Exec(ctx)
	if err != nil {
		return nil, err
	}
	first, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = first + int64(i)
	}
	return ids, nil
}

// ClearCachedQueryResults drops every cached record set.
func (c *Connection) ClearCachedQueryResults(_ context.Context) error {
	if c.cache != nil {
		c.cache.Purge()
	}
	return nil
}

// raw wraps built query text so Bun passes it through unformatted.
func (c *Connection) raw(text string) *bun.RawQuery {
	return c.db.NewRaw("?", bun.Safe(text))
}

func toRecords(values []map[string]interface{}) []types.Record {
	records := make([]types.Record, len(values))
	for i, v := range values {
		rec := make(types.Record, len(v))
		for col, value := range v {
			if b, ok := value.([]byte); ok {
				value = string(b)
			}
			rec[col] = value
		}
		records[i] = rec
	}
	return records
}

func cloneRecords(records []types.Record) []types.Record {
	out := make([]types.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
