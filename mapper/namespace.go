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
package mapper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/query"
)

// Declared is any type declaration a Catalog can hold.
type Declared interface {
	TypeName() model.TypeName
}

// Catalog holds declared entity, row and restriction types by identity.
type Catalog map[model.TypeName]Declared

// Add records the declarations, replacing earlier ones of the same identity.
func (c Catalog) Add(decls ...Declared) Catalog {
	for _, d := range decls {
		c[d.TypeName()] = d
	}
	return c
}

// NamespaceMapper is the convention based Mapper. For an identity such as
// "library/book/entity" the enclosing namespace is "library/book"; its
// entity is "library/book/entity", its restriction
// "library/book/restriction" and its row for a connection
// "x/sqlite/connection" is "library/book/sqlite/row". Relation columns are
// the namespace's table name plus "Id".
type NamespaceMapper struct {
	tables  map[string]string
	catalog Catalog
}

var (
	_ Mapper     = (*NamespaceMapper)(nil)
	_ TableNamer = (*NamespaceMapper)(nil)
)

// NewNamespace returns a mapper over a namespace to table name map.
func NewNamespace(tables map[string]string, catalog Catalog) *NamespaceMapper {
	t := make(map[string]string, len(tables))
	for k, v := range tables {
		t[k] = v
	}
	return &NamespaceMapper{tables: t, catalog: catalog}
}

func (m *NamespaceMapper) EntityType(of model.TypeName) (*model.EntityType, error) {
	ns, err := m.namespaceOf(of)
	if err != nil {
		return nil, fmt.Errorf("unable to get entity type: %w", err)
	}
	d, err := m.lookup(model.TypeName(ns + "/entity"))
	if err != nil {
		return nil, fmt.Errorf("unable to get entity type: %w", err)
	}
	t, ok := d.(*model.EntityType)
	if !ok {
		return nil, fmt.Errorf("unable to get entity type: %w: %s is a %T", ErrUnknownMapping, d.TypeName(), d)
	}
	return t, nil
}

func (m *NamespaceMapper) RestrictionType(of model.TypeName) (*query.RestrictionType, error) {
	ns, err := m.namespaceOf(of)
	if err != nil {
		return nil, fmt.Errorf("unable to get restriction type: %w", err)
	}
	d, err := m.lookup(model.TypeName(ns + "/restriction"))
	if err != nil {
		return nil, fmt.Errorf("unable to get restriction type: %w", err)
	}
	t, ok := d.(*query.RestrictionType)
	if !ok {
		return nil, fmt.Errorf("unable to get restriction type: %w: %s is a %T", ErrUnknownMapping, d.TypeName(), d)
	}
	return t, nil
}

func (m *NamespaceMapper) RowType(of model.TypeName, connection string) (*model.RowType, error) {
	ns, err := m.namespaceOf(of)
	if err != nil {
		return nil, fmt.Errorf("unable to get row type: %w", err)
	}
	backend, err := Backend(connection)
	if err != nil {
		return nil, fmt.Errorf("unable to get row type: %w", err)
	}
	d, err := m.lookup(model.TypeName(ns + "/" + backend + "/row"))
	if err != nil {
		return nil, fmt.Errorf("unable to get row type: %w", err)
	}
	t, ok := d.(*model.RowType)
	if !ok {
		return nil, fmt.Errorf("unable to get row type: %w: %s is a %T", ErrUnknownMapping, d.TypeName(), d)
	}
	return t, nil
}

func (m *NamespaceMapper) RelationColumn(of model.TypeName) (string, error) {
	table, err := m.TableName(of)
	if err != nil {
		return "", fmt.Errorf("unable to get relation column: %w", err)
	}
	return table + RelationColumnSuffix, nil
}

func (m *NamespaceMapper) TableName(of model.TypeName) (string, error) {
	ns, err := m.namespaceOf(of)
	if err != nil {
		return "", err
	}
	table, ok := m.tables[ns]
	if !ok {
		return "", fmt.Errorf("%w: namespace %q has no table name mapped", ErrUnknownMapping, ns)
	}
	return table, nil
}

// namespaceOf returns the namespace owning of. A declared row sits one level
// below it, under its backend segment.
func (m *NamespaceMapper) namespaceOf(of model.TypeName) (string, error) {
	ns, err := Namespace(string(of))
	if err != nil {
		return "", err
	}
	if _, ok := m.catalog[of].(*model.RowType); ok {
		return Namespace(ns)
	}
	return ns, nil
}

func (m *NamespaceMapper) lookup(id model.TypeName) (Declared, error) {
	d, ok := m.catalog[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s is not declared", ErrUnknownMapping, id)
	}
	return d, nil
}

// TablesConfig is the YAML form of a namespace to table name map:
//
//	tables:
//	  library/book: book
//	  library/author: author
type TablesConfig struct {
	Tables map[string]string `yaml:"tables"`
}

// ParseTables decodes a TablesConfig document.
func ParseTables(data []byte) (map[string]string, error) {
	var config TablesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse tables config: %w", err)
	}
	for ns, table := range config.Tables {
		if table == "" {
			return nil, fmt.Errorf("%w: namespace %q maps to an empty table name", ErrUnknownMapping, ns)
		}
	}
	return config.Tables, nil
}

// LoadTables reads a TablesConfig file.
func LoadTables(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables config: %w", err)
	}
	return ParseTables(data)
}
