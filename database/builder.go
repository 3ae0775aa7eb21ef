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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"

	"github.com/tomoncle/homebase/mapper"
	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
	"github.com/tomoncle/homebase/repository"
)

// ErrUnsupportedQuery is returned for rows or restrictions that cannot be
// expressed as a single statement.
var ErrUnsupportedQuery = errors.New("database: unsupported query")

// ownerAlias qualifies the owner table of a relation lookup.
const ownerAlias = "o"

// Builder renders rows and restrictions as SQL of one connection's dialect.
type Builder struct {
	db         *bun.DB
	fmter      schema.Formatter
	returning  bool
	mapper     mapper.Mapper
	tables     mapper.TableNamer
	connection string
}

var _ repository.QueryBuilder = (*Builder)(nil)

// NewBuilder returns a builder for conn. m must also name tables.
func NewBuilder(conn *Connection, m mapper.Mapper) (*Builder, error) {
	tables, ok := m.(mapper.TableNamer)
	if !ok {
		return nil, fmt.Errorf("%w: %T does not name tables", mapper.ErrUnknownMapping, m)
	}
	return &Builder{
		db:         conn.db,
		fmter:      conn.db.Formatter(),
		returning:  conn.db.HasFeature(feature.InsertReturning),
		mapper:     m,
		tables:     tables,
		connection: conn.Kind(),
	}, nil
}

func (b *Builder) CreateQuery(rows []*model.Row) (repository.Query, error) {
	typ, table, err := b.rowTable(rows)
	if err != nil {
		return repository.Query{}, err
	}
	columns := rows[0].Columns()
	if len(columns) == 0 {
		return repository.Query{}, fmt.Errorf("%w: %s rows have no columns to insert", ErrUnsupportedQuery, typ)
	}

	values := make([]string, 0, len(rows))
	for _, row := range rows {
		if !slices.Equal(row.Columns(), columns) {
			return repository.Query{}, fmt.Errorf("%w: %s rows have different column sets %v and %v",
				ErrUnsupportedQuery, typ, columns, row.Columns())
		}
		rec := row.Record()
		args := make([]interface{}, len(columns))
		for i, c := range columns {
			args[i] = rec[c]
		}
		values = append(values, "("+b.list(args)+")")
	}

	text := b.format("INSERT INTO ? (", bun.Ident(table)) + b.idents(columns) + ") VALUES " + strings.Join(values, ", ")
	if b.returning {
		text += b.format(" RETURNING ?", bun.Ident(model.IDProperty))
	}
	return repository.Query{Kind: repository.CreateQuery, Text: text, Type: typ}, nil
}

func (b *Builder) UpdateQuery(rows []*model.Row) (repository.Query, error) {
	typ, table, err := b.rowTable(rows)
	if err != nil {
		return repository.Query{}, err
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		id, ok := row.Record().Int64(model.IDProperty)
		if !ok {
			return repository.Query{}, fmt.Errorf("%w: %s row has no id to update", ErrUnsupportedQuery, typ)
		}
		ids[i] = id
	}

	var sets []string
	for _, p := range rows[0].Type().Schema().Properties() {
		if p.Name == model.IDProperty {
			continue
		}
		var cases []string
		for i, row := range rows {
			rec := row.Record()
			if !rec.Has(p.Name) {
				continue
			}
			cases = append(cases, b.format(" WHEN ? THEN ?", ids[i], rec[p.Name]))
		}
		if len(cases) == 0 {
			continue
		}
		sets = append(sets, b.format("? = CASE ?", bun.Ident(p.Name), bun.Ident(model.IDProperty))+
			strings.Join(cases, "")+b.format(" ELSE ? END", bun.Ident(p.Name)))
	}
	if len(sets) == 0 {
		return repository.Query{}, fmt.Errorf("%w: %s rows have no columns to update", ErrUnsupportedQuery, typ)
	}

	text := b.format("UPDATE ? SET ", bun.Ident(table)) + strings.Join(sets, ", ") +
		b.format(" WHERE ? IN (?)", bun.Ident(model.IDProperty), bun.In(ids))
	return repository.Query{Kind: repository.UpdateQuery, Text: text, Type: typ}, nil
}

func (b *Builder) RetrieveQuery(restrictions []*query.Restriction) (repository.Query, error) {
	typ, table, err := b.restrictionTable(restrictions)
	if err != nil {
		return repository.Query{}, err
	}
	sel, err := b.selection(table, restrictions)
	if err != nil {
		return repository.Query{}, err
	}

	q := b.db.NewSelect().ColumnExpr("?.*", bun.Ident(table)).TableExpr("?", bun.Ident(table))
	if j := sel.join; j != nil {
		q = q.ColumnExpr("? AS ?", b.column(ownerAlias, model.IDProperty), bun.Ident(j.ownerColumn)).
			Join("INNER JOIN ? AS ?", bun.Ident(j.ownerTable), bun.Ident(ownerAlias)).
			JoinOn("? = ?", b.column(ownerAlias, j.relatedColumn), b.column(table, model.IDProperty))
	}
	for _, cond := range sel.conds {
		q = q.WhereOr("?", bun.Safe(cond))
	}
	text, err := b.render(q)
	if err != nil {
		return repository.Query{}, err
	}
	return repository.Query{Kind: repository.RetrieveQuery, Text: text, Type: typ}, nil
}

func (b *Builder) DeleteQuery(restrictions []*query.Restriction) (repository.Query, error) {
	typ, table, err := b.restrictionTable(restrictions)
	if err != nil {
		return repository.Query{}, err
	}
	sel, err := b.selection(table, restrictions)
	if err != nil {
		return repository.Query{}, err
	}
	if sel.join != nil {
		return repository.Query{}, fmt.Errorf("%w: deleting %s through a joined owner", ErrUnsupportedQuery, typ)
	}

	q := b.db.NewDelete().TableExpr("?", bun.Ident(table))
	if len(sel.conds) == 0 {
		q = q.Where("1 = 1")
	}
	for _, cond := range sel.conds {
		q = q.WhereOr("?", bun.Safe(cond))
	}
	text, err := b.render(q)
	if err != nil {
		return repository.Query{}, err
	}
	return repository.Query{Kind: repository.DeleteQuery, Text: text, Type: typ}, nil
}

func (b *Builder) rowTable(rows []*model.Row) (model.TypeName, string, error) {
	if len(rows) == 0 {
		return "", "", fmt.Errorf("%w: no rows given", ErrUnsupportedQuery)
	}
	typ := rows[0].Type()
	for _, row := range rows[1:] {
		if row.Type() != typ {
			return "", "", fmt.Errorf("%w: rows of %s and %s mixed", ErrUnsupportedQuery, typ.TypeName(), row.TypeName())
		}
	}
	table, err := b.tables.TableName(typ.TypeName())
	if err != nil {
		return "", "", err
	}
	return typ.TypeName(), table, nil
}

func (b *Builder) restrictionTable(restrictions []*query.Restriction) (model.TypeName, string, error) {
	if len(restrictions) == 0 {
		return "", "", fmt.Errorf("%w: no restriction given", ErrUnsupportedQuery)
	}
	typ := restrictions[0].TypeName()
	for _, r := range restrictions[1:] {
		if r.TypeName() != typ {
			return "", "", fmt.Errorf("%w: restrictions of %s and %s mixed", ErrUnsupportedQuery, typ, r.TypeName())
		}
	}
	table, err := b.tables.TableName(typ)
	if err != nil {
		return "", "", err
	}
	return typ, table, nil
}

// selection is the rendered form of a restriction list: an optional owner
// join and the conditions to OR together. No conditions match every row.
type selection struct {
	join  *ownerJoin
	conds []string
}

// ownerJoin exposes the owner id of each related row under ownerColumn.
type ownerJoin struct {
	ownerTable    string
	ownerColumn   string
	relatedColumn string
}

// selection combines the restrictions with OR. A restriction matching
// everything drops the condition altogether.
func (b *Builder) selection(table string, restrictions []*query.Restriction) (selection, error) {
	var sel selection
	conds := make([]string, 0, len(restrictions))
	matchAll := false
	for _, r := range restrictions {
		rel, err := b.relation(table, r)
		if err != nil {
			return selection{}, err
		}
		if rel.join != nil {
			if len(restrictions) > 1 {
				return selection{}, fmt.Errorf("%w: joined owner of %s among several restrictions", ErrUnsupportedQuery, r.TypeName())
			}
			sel.join = rel.join
		}
		cond, err := b.condition(table, r, rel.scope)
		if err != nil {
			return selection{}, err
		}
		if cond == "" {
			matchAll = true
		}
		conds = append(conds, cond)
	}
	if !matchAll {
		sel.conds = conds
	}
	return sel, nil
}

// relationScope restricts a related table to the rows of an owner.
type relationScope struct {
	join  *ownerJoin
	scope *string
}

// relation renders the exclusive join of r with a restriction of another
// type. When the related row carries the owner's relation column the owner
// is matched in a subquery; otherwise the owner row must carry the related
// relation column and the owner table is joined.
func (b *Builder) relation(table string, r *query.Restriction) (relationScope, error) {
	owner, ok := r.Restrictions(query.JoinExclusive)
	if !ok || owner.TypeName() == r.TypeName() {
		return relationScope{}, nil
	}
	fail := func(err error) (relationScope, error) {
		return relationScope{}, fmt.Errorf("unable to relate %s to %s: %w", r.TypeName(), owner.TypeName(), err)
	}

	ownerTable, err := b.tables.TableName(owner.TypeName())
	if err != nil {
		return fail(err)
	}
	ownerColumn, err := b.mapper.RelationColumn(owner.TypeName())
	if err != nil {
		return fail(err)
	}
	relatedRow, err := b.mapper.RowType(r.TypeName(), b.connection)
	if err != nil {
		return fail(err)
	}
	ownerCond, err := b.condition(ownerAlias, owner, nil)
	if err != nil {
		return fail(err)
	}

	if relatedRow.Schema().Has(ownerColumn) {
		owners := b.db.NewSelect().ColumnExpr("?", b.column(ownerAlias, model.IDProperty)).
			TableExpr("? AS ?", bun.Ident(ownerTable), bun.Ident(ownerAlias))
		if ownerCond != "" {
			owners = owners.Where("?", bun.Safe(ownerCond))
		}
		sub, err := b.render(owners)
		if err != nil {
			return fail(err)
		}
		scope := b.format("? IN (?)", b.column(table, ownerColumn), bun.Safe(sub))
		return relationScope{scope: &scope}, nil
	}

	relatedColumn, err := b.mapper.RelationColumn(r.TypeName())
	if err != nil {
		return fail(err)
	}
	ownerRow, err := b.mapper.RowType(owner.TypeName(), b.connection)
	if err != nil {
		return fail(err)
	}
	if !ownerRow.Schema().Has(relatedColumn) {
		return fail(fmt.Errorf("%w: neither %s declares %q nor %s declares %q",
			ErrUnsupportedQuery, relatedRow.TypeName(), ownerColumn, ownerRow.TypeName(), relatedColumn))
	}
	return relationScope{
		join:  &ownerJoin{ownerTable: ownerTable, ownerColumn: ownerColumn, relatedColumn: relatedColumn},
		scope: &ownerCond,
	}, nil
}

// condition renders r qualified by qual: its expressions joined by AND, its
// exclusive join combined with AND, its inclusive join with OR. scope stands
// in for an exclusive join with another type; without scope such a join is
// unsupported. An empty result matches every row.
func (b *Builder) condition(qual string, r *query.Restriction, scope *string) (string, error) {
	var parts []string
	for _, n := range r.Expressions() {
		c, err := b.expression(b.column(qual, n.Property), n.Expression)
		if err != nil {
			return "", fmt.Errorf("unable to render %s.%s: %w", r.TypeName(), n.Property, err)
		}
		parts = append(parts, c)
	}
	cond := strings.Join(parts, " AND ")

	if j, ok := r.Restrictions(query.JoinExclusive); ok {
		var jc string
		switch {
		case j.TypeName() == r.TypeName():
			c, err := b.condition(qual, j, nil)
			if err != nil {
				return "", err
			}
			jc = c
		case scope != nil:
			jc = *scope
		default:
			return "", fmt.Errorf("%w: %s joined with %s", ErrUnsupportedQuery, r.TypeName(), j.TypeName())
		}
		cond = combine(cond, jc, "AND")
	}
	if j, ok := r.Restrictions(query.JoinInclusive); ok {
		if j.TypeName() != r.TypeName() {
			return "", fmt.Errorf("%w: %s inclusively joined with %s", ErrUnsupportedQuery, r.TypeName(), j.TypeName())
		}
		jc, err := b.condition(qual, j, nil)
		if err != nil {
			return "", err
		}
		cond = combine(cond, jc, "OR")
	}
	return cond, nil
}

func (b *Builder) expression(col schema.QueryAppender, e *query.Expression) (string, error) {
	switch op := e.Operator(); op {
	case query.OpIn, query.OpNotIn:
		var values []interface{}
		null := false
		for _, v := range e.Values() {
			if v.IsNull() {
				null = true
				continue
			}
			values = append(values, v.Raw())
		}
		if op == query.OpIn {
			return b.in(col, values, null, "IN", "IS NULL", "OR", "1 = 0"), nil
		}
		return b.in(col, values, null, "NOT IN", "IS NOT NULL", "AND", "1 = 1"), nil
	case query.OpBetween, query.OpNotBetween:
		values := e.Values()
		if values[0].IsNull() || values[1].IsNull() {
			return "", fmt.Errorf("%w: %s with NULL bound", query.ErrInvalidValue, op)
		}
		return b.format("? "+op.String()+" ? AND ?", col, values[0].Raw(), values[1].Raw()), nil
	default:
		v := e.Value()
		if v.IsNull() {
			return "", fmt.Errorf("%w: %s NULL", query.ErrInvalidValue, op)
		}
		return b.format("? "+op.String()+" ?", col, v.Raw()), nil
	}
}

// in renders a list membership test; NULL members are matched by nullTest
// since no value is ever IN a list containing NULL.
func (b *Builder) in(col schema.QueryAppender, values []interface{}, null bool, op, nullTest, glue, empty string) string {
	var parts []string
	if len(values) > 0 {
		parts = append(parts, b.format("? "+op+" (", col)+b.list(values)+")")
	}
	if null {
		parts = append(parts, b.format("? "+nullTest, col))
	}
	switch len(parts) {
	case 0:
		return empty
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " "+glue+" ") + ")"
	}
}

func (b *Builder) column(qual, name string) schema.QueryAppender {
	return bun.Ident(qual + "." + name)
}

func (b *Builder) idents(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = b.format("?", bun.Ident(n))
	}
	return strings.Join(out, ", ")
}

// list renders comma separated values; nil renders as NULL.
func (b *Builder) list(values []interface{}) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = b.format("?", v)
	}
	return strings.Join(out, ", ")
}

func (b *Builder) render(q schema.QueryAppender) (string, error) {
	text, err := q.AppendQuery(b.fmter, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedQuery, err)
	}
	return string(text), nil
}

func (b *Builder) format(q string, args ...interface{}) string {
	return b.fmter.FormatQuery(q, args...)
}

func combine(a, b, op string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return "(" + a + ") " + op + " (" + b + ")"
	}
}
