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
package homebase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tomoncle/homebase/database"
	"github.com/tomoncle/homebase/mapper"
	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
	"github.com/tomoncle/homebase/repository"
)

// ErrNotFound is returned by Get when no entity has the id.
var ErrNotFound = errors.New("homebase: entity not found")

// Model is implemented by *model.Entity and by types embedding it.
type Model interface {
	Base() *model.Entity
}

// Repository is what a Service needs from a repository.
type Repository interface {
	repository.Storage
	Name() model.TypeName
	Mapper() mapper.Mapper
}

var _ Repository = (*repository.Repository)(nil)

type Service[T Model] interface {
	// Get returns the entity with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (T, error)

	// Find returns the entities matching any restriction, ordered by id.
	Find(ctx context.Context, restrictions ...*query.Restriction) ([]T, error)

	// Persist inserts new and updates changed models. It returns the
	// written models, inserted first, and the updated row count.
	Persist(ctx context.Context, models ...T) ([]T, int64, error)

	// Delete removes the rows matching any restriction.
	Delete(ctx context.Context, restrictions ...*query.Restriction) (int64, error)

	// DeleteByID removes the rows with the given ids.
	DeleteByID(ctx context.Context, ids ...int64) (int64, error)

	// Restriction returns an empty restriction of the service's type.
	Restriction() (*query.Restriction, error)
}

type baseServiceImpl[T Model] struct {
	name model.TypeName
	wrap func(*model.Entity) T

	once sync.Once
	repo Repository
	err  error
}

// NewService returns a Service over the repository name, created on first
// use from the global database connection. wrap turns found entities into T.
func NewService[T Model](name model.TypeName, wrap func(*model.Entity) T) Service[T] {
	return &baseServiceImpl[T]{name: name, wrap: wrap}
}

// NewServiceWith returns a Service over repo.
func NewServiceWith[T Model](repo Repository, wrap func(*model.Entity) T) Service[T] {
	s := &baseServiceImpl[T]{name: repo.Name(), wrap: wrap, repo: repo}
	s.once.Do(func() {})
	return s
}

func (s *baseServiceImpl[T]) baseRepo() (Repository, error) {
	s.once.Do(func() {
		repo, err := database.NewRepository(s.name)
		if err != nil {
			s.err = fmt.Errorf("unable to create repository %s: %w", s.name, err)
			return
		}
		s.repo = repo
	})
	return s.repo, s.err
}

func (s *baseServiceImpl[T]) Restriction() (*query.Restriction, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	typ, err := repo.Mapper().RestrictionType(repo.Name())
	if err != nil {
		return nil, err
	}
	return typ.Create(), nil
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	found, err := s.findByID(ctx, id)
	if err != nil {
		return zero, err
	}
	if len(found) == 0 {
		return zero, fmt.Errorf("%w: %s %d", ErrNotFound, s.name, id)
	}
	return found[0], nil
}

func (s *baseServiceImpl[T]) findByID(ctx context.Context, ids ...int64) ([]T, error) {
	r, err := s.byID(ids)
	if err != nil {
		return nil, err
	}
	return s.Find(ctx, r)
}

func (s *baseServiceImpl[T]) byID(ids []int64) (*query.Restriction, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	typ, err := repo.Mapper().RestrictionType(repo.Name())
	if err != nil {
		return nil, err
	}
	return query.IDIn(typ, ids)
}

func (s *baseServiceImpl[T]) Find(ctx context.Context, restrictions ...*query.Restriction) ([]T, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, err
	}
	found, err := repo.FindEntities(ctx, restrictions...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(found))
	ids := make([]int64, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		out = append(out, s.wrap(found[id]))
	}
	return out, nil
}

func (s *baseServiceImpl[T]) Persist(ctx context.Context, models ...T) ([]T, int64, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return nil, 0, err
	}
	byEntity := make(map[*model.Entity]T, len(models))
	entities := make([]*model.Entity, len(models))
	for i, m := range models {
		entities[i] = m.Base()
		byEntity[entities[i]] = m
	}
	written, n, err := repo.PersistEntities(ctx, entities)
	if err != nil {
		return nil, 0, err
	}
	out := make([]T, len(written))
	for i, e := range written {
		out[i] = byEntity[e]
	}
	return out, n, nil
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, restrictions ...*query.Restriction) (int64, error) {
	repo, err := s.baseRepo()
	if err != nil {
		return 0, err
	}
	return repo.DeleteEntities(ctx, restrictions...)
}

func (s *baseServiceImpl[T]) DeleteByID(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	r, err := s.byID(ids)
	if err != nil {
		return 0, err
	}
	return s.Delete(ctx, r)
}
