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
	"slices"
	"sync"

	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
	"github.com/tomoncle/homebase/types"
)

// relationScope is one relation property of one entity batch: a restriction
// of the related type joined to the batch's id restriction. Its records are
// fetched once and shared by every entity of the batch.
type relationScope struct {
	property    model.Property
	restriction *query.Restriction

	mu      sync.Mutex
	loaded  bool
	query   Query
	records []types.Record
}

// load returns the scope's records, querying on first use or when refresh
// is set.
func (s *relationScope) load(ctx context.Context, r *Repository, refresh bool) ([]types.Record, Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && !refresh {
		return s.records, s.query, nil
	}
	records, q, err := r.queryResults(ctx, "get related rows", []*query.Restriction{s.restriction})
	if err != nil {
		return nil, q, err
	}
	s.loaded, s.query, s.records = true, q, records
	return records, q, nil
}

// relationScopes builds one scope per relation property of typ for the
// entities with the given ids.
func (r *Repository) relationScopes(typ *model.EntityType, ids []int64) ([]*relationScope, error) {
	relations := typ.Relations()
	if len(relations) == 0 {
		return nil, nil
	}
	restrictionType, err := r.mapper.RestrictionType(typ.TypeName())
	if err != nil {
		return nil, err
	}
	byID, err := query.IDIn(restrictionType, ids)
	if err != nil {
		return nil, err
	}
	scopes := make([]*relationScope, 0, len(relations))
	names := make([]string, 0, len(relations))
	for name := range relations {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		p := relations[name]
		relatedType, err := r.mapper.RestrictionType(p.Related)
		if err != nil {
			return nil, fmt.Errorf("relation %s.%s: %w", typ.TypeName(), name, err)
		}
		related := relatedType.Create()
		related.Join(byID, query.JoinExclusive)
		scopes = append(scopes, &relationScope{property: p, restriction: related})
	}
	return scopes, nil
}

// bindings returns the lazy relation values to attach to owner.
func (r *Repository) bindings(scopes []*relationScope, owner *model.Entity) map[string]interface{} {
	props := make(map[string]interface{}, len(scopes)+1)
	for _, s := range scopes {
		props[s.property.Name] = r.resolver(s, owner)
	}
	return props
}

// resolver reads the shared scope on the first resolution and queries again
// on every later one, which only happens after the property was reset.
func (r *Repository) resolver(s *relationScope, owner *model.Entity) model.Resolver {
	resolved := false
	return func(ctx context.Context) (interface{}, error) {
		related, err := r.relatedEntities(ctx, s, owner, resolved)
		if err != nil {
			return nil, err
		}
		v, err := r.relationValue(s.property, owner, related)
		if err != nil {
			return nil, err
		}
		resolved = true
		return v, nil
	}
}

// relatedEntities returns the entities of the scope whose relation column
// equals the owner's id.
func (r *Repository) relatedEntities(ctx context.Context, s *relationScope, owner *model.Entity, refresh bool) (map[int64]*model.Entity, error) {
	const op = "find related entities"
	records, q, err := s.load(ctx, r, refresh)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[int64]*model.Entity{}, nil
	}
	related := s.restriction.TypeName()
	column, err := r.mapper.RelationColumn(owner.TypeName())
	if err != nil {
		return nil, r.configError(op, err)
	}
	rowType, err := r.mapper.RowType(related, r.conn.Kind())
	if err != nil {
		return nil, r.configError(op, err)
	}
	entityType, err := r.mapper.EntityType(related)
	if err != nil {
		return nil, r.configError(op, err)
	}

	ownerID, _ := owner.ID()
	var rows []*model.Row
	for _, rec := range records {
		v, ok := rec[column]
		if !ok || v == nil {
			return nil, &QueryError{Op: op, Query: q, Kind: ErrBadQuery, Err: fmt.Errorf(
				"column %q of %s is not set in retrieved rows of %s, make sure it is retrieved to bind results",
				column, owner.TypeName(), entityType.TypeName())}
		}
		if id, ok := types.ToInt64(v); !ok || id != ownerID {
			continue
		}
		row, err := model.CreateFromQueryResult(rowType, rec)
		if err != nil {
			return nil, r.configError(op, err)
		}
		rows = append(rows, row)
	}
	return r.createEntities(rows, entityType)
}

// relationValue shapes related entities for the property kind: a slice
// ordered by id, or a single entity.
func (r *Repository) relationValue(p model.Property, owner *model.Entity, related map[int64]*model.Entity) (interface{}, error) {
	ids := make([]int64, 0, len(related))
	for id := range related {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if p.Kind == model.KindEntities {
		out := make([]*model.Entity, 0, len(ids))
		for _, id := range ids {
			out = append(out, related[id])
		}
		return out, nil
	}
	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return related[ids[0]], nil
	}
	if r.policy == FailOnMultiple {
		return nil, fmt.Errorf("%w: %s.%s matched %d %s entities", ErrMultipleRelated, owner.TypeName(), p.Name, len(ids), p.Related)
	}
	r.logger.Warn("single related entity expected, multiple obtained",
		"entity", owner.TypeName(), "property", p.Name, "related", p.Related, "count", len(ids), "picked", ids[0])
	return related[ids[0]], nil
}
