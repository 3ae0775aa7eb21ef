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
	"fmt"

	"github.com/tomoncle/homebase/mapper"
	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
	"github.com/tomoncle/homebase/types"
)

// Repository finds, persists and deletes the entities of one type identity.
// Each call returns fresh entities; the repository keeps no entity graph.
type Repository struct {
	name    model.TypeName
	conn    Connection
	mapper  mapper.Mapper
	builder QueryBuilder
	logger  Logger
	policy  MultipleRelatedPolicy
}

var _ Storage = (*Repository)(nil)

// New returns a repository for the type identity name.
func New(name model.TypeName, conn Connection, m mapper.Mapper, builder QueryBuilder, opts ...Option) *Repository {
	r := &Repository{
		name:    name,
		conn:    conn,
		mapper:  m,
		builder: builder,
		logger:  defaultLogger(),
		policy:  WarnAndPick,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the type identity the repository serves.
func (r *Repository) Name() model.TypeName { return r.name }

func (r *Repository) Mapper() mapper.Mapper { return r.mapper }

func (r *Repository) Connection() Connection { return r.conn }

// FindEntities returns the entities matching the restrictions keyed by id.
// An empty result returns before any mapper lookup.
func (r *Repository) FindEntities(ctx context.Context, restrictions ...*query.Restriction) (map[int64]*model.Entity, error) {
	records, _, err := r.queryResults(ctx, "get rows", restrictions)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[int64]*model.Entity{}, nil
	}
	rowType, err := r.mapper.RowType(r.name, r.conn.Kind())
	if err != nil {
		return nil, r.configError("find entities", err)
	}
	rows := make([]*model.Row, 0, len(records))
	for _, rec := range records {
		row, err := model.CreateFromQueryResult(rowType, rec)
		if err != nil {
			return nil, r.configError("find entities", err)
		}
		rows = append(rows, row)
	}
	entityType, err := r.mapper.EntityType(r.name)
	if err != nil {
		return nil, r.configError("find entities", err)
	}
	entities, err := r.createEntities(rows, entityType)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("entities found", "repository", r.name, "count", len(entities))
	return entities, nil
}

// PersistEntities inserts new entities and updates changed ones. It returns
// the inserted entities followed by the updated ones, each in input order,
// and the row count reported for the update batch. Entities that are
// neither new nor changed are left out.
func (r *Repository) PersistEntities(ctx context.Context, entities []*model.Entity) ([]*model.Entity, int64, error) {
	var inserts, updates []*model.Entity
	for _, e := range entities {
		switch {
		case e.IsNew():
			inserts = append(inserts, e)
		case e.IsChanged():
			updates = append(updates, e)
		}
	}

	if len(inserts) > 0 {
		if err := r.insertEntities(ctx, inserts); err != nil {
			return nil, 0, err
		}
	}
	var updated int64
	if len(updates) > 0 {
		n, err := r.updateEntities(ctx, updates)
		if err != nil {
			return nil, 0, err
		}
		updated = n
	}

	out := make([]*model.Entity, 0, len(inserts)+len(updates))
	out = append(out, inserts...)
	out = append(out, updates...)
	if len(out) > 0 {
		r.logger.Info("entities persisted", "repository", r.name, "inserted", len(inserts), "updated", len(updates), "rows", updated)
	}
	return out, updated, nil
}

// DeleteEntities deletes the rows matching the restrictions and returns the
// affected row count.
func (r *Repository) DeleteEntities(ctx context.Context, restrictions ...*query.Restriction) (int64, error) {
	const op = "delete entities"
	q, err := r.builder.DeleteQuery(restrictions)
	if err != nil {
		return 0, newBuildError(op, err)
	}
	res, err := r.conn.Execute(ctx, q)
	if err != nil {
		return 0, newQueryError(op, q, err)
	}
	if err := r.invalidate(ctx, op); err != nil {
		return 0, err
	}
	r.logger.Info("entities deleted", "repository", r.name, "rows", res.RowCount)
	return res.RowCount, nil
}

func (r *Repository) insertEntities(ctx context.Context, entities []*model.Entity) error {
	const op = "insert entities"
	rows, err := r.rowsFromEntities(op, entities)
	if err != nil {
		return err
	}
	q, err := r.builder.CreateQuery(rows)
	if err != nil {
		return newBuildError(op, err)
	}
	res, err := r.conn.Execute(ctx, q)
	if err != nil {
		return newQueryError(op, q, err)
	}
	if err := r.invalidate(ctx, op); err != nil {
		return err
	}
	if len(res.IDs) != len(entities) {
		return r.configError(op, fmt.Errorf("%w: %d rows written, %d ids returned", ErrIDCountMismatch, len(entities), len(res.IDs)))
	}

	entityType, err := r.mapper.EntityType(r.name)
	if err != nil {
		return r.configError(op, err)
	}
	scopes, err := r.relationScopes(entityType, res.IDs)
	if err != nil {
		return r.configError(op, err)
	}
	for i, e := range entities {
		props := r.bindings(scopes, e)
		props[model.IDProperty] = res.IDs[i]
		if err := e.Attach(props); err != nil {
			return r.configError(op, err)
		}
	}
	return nil
}

func (r *Repository) updateEntities(ctx context.Context, entities []*model.Entity) (int64, error) {
	const op = "update entities"
	rows, err := r.rowsFromEntities(op, entities)
	if err != nil {
		return 0, err
	}
	q, err := r.builder.UpdateQuery(rows)
	if err != nil {
		return 0, newBuildError(op, err)
	}
	res, err := r.conn.Execute(ctx, q)
	if err != nil {
		return 0, newQueryError(op, q, err)
	}
	for _, e := range entities {
		if err := e.Attach(nil); err != nil {
			return 0, r.configError(op, err)
		}
	}
	if err := r.invalidate(ctx, op); err != nil {
		return 0, err
	}
	return res.RowCount, nil
}

func (r *Repository) rowsFromEntities(op string, entities []*model.Entity) ([]*model.Row, error) {
	rowType, err := r.mapper.RowType(r.name, r.conn.Kind())
	if err != nil {
		return nil, r.configError(op, err)
	}
	rows := make([]*model.Row, 0, len(entities))
	for _, e := range entities {
		row, err := model.CreateFromEntity(rowType, e)
		if err != nil {
			return nil, r.configError(op, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// createEntities builds one attached entity per row, keyed by id, with its
// relation properties bound to a batch wide relation scope.
func (r *Repository) createEntities(rows []*model.Row, typ *model.EntityType) (map[int64]*model.Entity, error) {
	const op = "create entities"
	entities := make(map[int64]*model.Entity, len(rows))
	if len(rows) == 0 {
		return entities, nil
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		e, err := model.CreateFromValueObject(typ, row)
		if err != nil {
			return nil, r.configError(op, err)
		}
		id, ok := e.ID()
		if !ok {
			return nil, r.configError(op, fmt.Errorf("%w: %s created from %s has no id, check the row mapping", ErrIdentityMissing, typ.TypeName(), row.TypeName()))
		}
		if _, dup := entities[id]; !dup {
			ids = append(ids, id)
		}
		entities[id] = e
	}

	scopes, err := r.relationScopes(typ, ids)
	if err != nil {
		return nil, r.configError(op, err)
	}
	for _, e := range entities {
		if err := e.Attach(r.bindings(scopes, e)); err != nil {
			return nil, r.configError(op, err)
		}
	}
	return entities, nil
}

func (r *Repository) queryResults(ctx context.Context, op string, restrictions []*query.Restriction) ([]types.Record, Query, error) {
	q, err := r.builder.RetrieveQuery(restrictions)
	if err != nil {
		return nil, q, newBuildError(op, err)
	}
	res, err := r.conn.Execute(ctx, q)
	if err != nil {
		return nil, q, newQueryError(op, q, err)
	}
	return res.Records, q, nil
}

func (r *Repository) invalidate(ctx context.Context, op string) error {
	if err := r.conn.ClearCachedQueryResults(ctx); err != nil {
		r.logger.Error("unable to clear cached query results", "repository", r.name, "op", op, "error", err)
		return fmt.Errorf("unable to %s: %w: %w", op, ErrCacheInvalidation, err)
	}
	return nil
}

// configError reports a mismatch between declared metadata and data.
func (r *Repository) configError(op string, err error) error {
	r.logger.Error("configuration failure", "repository", r.name, "op", op, "error", err)
	return fmt.Errorf("unable to %s: %w", op, err)
}
