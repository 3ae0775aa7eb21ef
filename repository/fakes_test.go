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
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tomoncle/homebase/mapper"
	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
	"github.com/tomoncle/homebase/types"
)

func passThrough(vo model.ValueObject) (map[string]interface{}, error) { return vo.Values(), nil }

var (
	authorEntity = model.MustEntityType(model.MustSchema("library/author/entity",
		model.Scalar("name"), model.Many("bookEntities", "library/book/entity")), passThrough)
	bookEntity = model.MustEntityType(model.MustSchema("library/book/entity",
		model.Scalar("title"), model.ReadOnlyScalar("authorId"), model.One("authorEntity", "library/author/entity")), passThrough)

	registry = mapper.MustRegistry(
		mapper.Binding{
			Name: "library/author", Table: "author", Entity: authorEntity,
			Restriction: query.MustRestrictionType("library/author/restriction", "name"),
			Rows: []*model.RowType{model.MustRowType(model.MustSchema("library/author/test/row",
				model.Scalar("id"), model.Scalar("name")), "test")},
		},
		mapper.Binding{
			Name: "library/book", Table: "book", Entity: bookEntity,
			Restriction: query.MustRestrictionType("library/book/restriction", "title", "authorId"),
			Rows: []*model.RowType{model.MustRowType(model.MustSchema("library/book/test/row",
				model.Scalar("id"), model.Scalar("title"), model.Scalar("authorId")), "test")},
		},
	)
)

const testConnection = "homebase/test/connection"

// fakeConnection answers queries by their text.
type fakeConnection struct {
	kind     string
	results  map[string]Result
	errs     map[string]error
	clearErr error

	executed []Query
	clears   int
}

func newFakeConnection() *fakeConnection {
	return &fakeConnection{kind: testConnection, results: map[string]Result{}, errs: map[string]error{}}
}

func (c *fakeConnection) Kind() string { return c.kind }

func (c *fakeConnection) Execute(_ context.Context, q Query) (Result, error) {
	c.executed = append(c.executed, q)
	if err, ok := c.errs[q.Text]; ok {
		return Result{}, err
	}
	return c.results[q.Text], nil
}

func (c *fakeConnection) ClearCachedQueryResults(context.Context) error {
	c.clears++
	return c.clearErr
}

func (c *fakeConnection) count(kind QueryKind) int {
	n := 0
	for _, q := range c.executed {
		if q.Kind == kind {
			n++
		}
	}
	return n
}

// fakeBuilder renders restrictions as readable text and records rows.
type fakeBuilder struct {
	err     error
	created [][]*model.Row
	updated [][]*model.Row
}

func describe(r *query.Restriction) string {
	parts := []string{string(r.TypeName())}
	for _, n := range r.Expressions() {
		parts = append(parts, n.Property+" "+n.Expression.String())
	}
	if j, ok := r.Restrictions(query.JoinExclusive); ok {
		parts = append(parts, "& ("+describe(j)+")")
	}
	return strings.Join(parts, " ")
}

func retrieveText(rs ...*query.Restriction) string {
	parts := []string{"retrieve"}
	for _, r := range rs {
		parts = append(parts, describe(r))
	}
	return strings.Join(parts, " ")
}

func (b *fakeBuilder) CreateQuery(rows []*model.Row) (Query, error) {
	b.created = append(b.created, rows)
	return Query{Kind: CreateQuery, Text: fmt.Sprintf("create %d", len(rows))}, b.err
}

func (b *fakeBuilder) RetrieveQuery(rs []*query.Restriction) (Query, error) {
	return Query{Kind: RetrieveQuery, Text: retrieveText(rs...)}, b.err
}

func (b *fakeBuilder) UpdateQuery(rows []*model.Row) (Query, error) {
	b.updated = append(b.updated, rows)
	return Query{Kind: UpdateQuery, Text: fmt.Sprintf("update %d", len(rows))}, b.err
}

func (b *fakeBuilder) DeleteQuery(rs []*query.Restriction) (Query, error) {
	return Query{Kind: DeleteQuery, Text: "delete " + retrieveText(rs...)}, b.err
}

// countingMapper counts lookups made through it.
type countingMapper struct {
	mapper.Mapper
	calls int
}

func (m *countingMapper) EntityType(of model.TypeName) (*model.EntityType, error) {
	m.calls++
	return m.Mapper.EntityType(of)
}

func (m *countingMapper) RowType(of model.TypeName, connection string) (*model.RowType, error) {
	m.calls++
	return m.Mapper.RowType(of, connection)
}

func (m *countingMapper) RestrictionType(of model.TypeName) (*query.RestrictionType, error) {
	m.calls++
	return m.Mapper.RestrictionType(of)
}

func (m *countingMapper) RelationColumn(of model.TypeName) (string, error) {
	m.calls++
	return m.Mapper.RelationColumn(of)
}

type logLine struct {
	level, msg string
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, logLine{level, msg})
}

func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.add("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		if line.level == level {
			n++
		}
	}
	return n
}

var errDriver = errors.New("driver: connection reset")

func bookRestriction() *query.Restriction {
	t, _ := registry.RestrictionType("library/book")
	return t.Create()
}

func authorRestriction() *query.Restriction {
	t, _ := registry.RestrictionType("library/author")
	return t.Create()
}

func records(recs ...types.Record) Result { return Result{Records: recs} }
