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
	"fmt"
	"sync"

	"github.com/tomoncle/homebase/mapper"
)

var (
	registryMu      sync.RWMutex
	defaultRegistry = &mapper.Registry{}
	defaultMapper   mapper.Mapper
)

// RegisterBindings adds bindings to the default registry and validates it.
// Relations may reference bindings registered by a later call, so callers
// registering in several steps should check the last returned error.
func RegisterBindings(bindings ...mapper.Binding) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, b := range bindings {
		if err := defaultRegistry.Register(b); err != nil {
			return fmt.Errorf("failed to register %s: %w", b.Name, err)
		}
	}
	return defaultRegistry.Validate()
}

// SetMapper replaces the mapper used by NewRepository. A nil mapper restores
// the default registry.
func SetMapper(m mapper.Mapper) {
	registryMu.Lock()
	defer registryMu.Unlock()
	defaultMapper = m
}

// DefaultMapper returns the mapper used by NewRepository.
func DefaultMapper() mapper.Mapper {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if defaultMapper != nil {
		return defaultMapper
	}
	return defaultRegistry
}

// DefaultRegistry returns the registry RegisterBindings writes to.
func DefaultRegistry() *mapper.Registry {
	return defaultRegistry
}

// UseTables switches NewRepository to the namespace mapper over the tables
// file and the types declared in the default registry.
func UseTables(path string) error {
	tables, err := mapper.LoadTables(path)
	if err != nil {
		return err
	}
	SetMapper(mapper.NewNamespace(tables, defaultRegistry.Catalog()))
	return nil
}
