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

	"github.com/uptrace/bun"

	"github.com/tomoncle/homebase/mapper"
	"github.com/tomoncle/homebase/model"
	"github.com/tomoncle/homebase/repository"
)

var (
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config
	globalConn    *Connection
	DB            *bun.DB
)

// GetDB returns the global Bun database instance.
func GetDB() *bun.DB {
	if globalFactory != nil {
		return globalFactory.GetDB()
	}
	return DB
}

// GetDatabaseManager returns the global database manager.
func GetDatabaseManager() AbstractDatabaseManager {
	if globalFactory != nil {
		return globalFactory.GetManager()
	}
	return nil
}

// GetDatabaseFactory returns the global database factory.
func GetDatabaseFactory() *BaseDatabaseFactory {
	return globalFactory
}

// GetConfig returns the configuration InitDB was called with.
func GetConfig() *Config {
	return globalConfig
}

// GetConnection returns the global repository connection.
func GetConnection() *Connection {
	return globalConn
}

// InitDB connects the global database and prepares the connection shared by
// repositories. With a tables file, repositories resolve types by namespace.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	globalConfig = cfg

	factory := NewDatabaseFactory()
	manager, err := factory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	conn, err := NewConnection(manager.GetDB(), cfg.ConnectionConfig.CacheSize, GetLogger())
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	if cfg.TablesFile != "" {
		if err := UseTables(cfg.TablesFile); err != nil {
			_ = factory.Close()
			return nil, fmt.Errorf("failed to load tables file: %w", err)
		}
	}

	globalFactory = factory
	globalConn = conn
	DB = manager.GetDB()
	return DB, nil
}

// NewRepository returns a repository over the global connection, resolving
// types with DefaultMapper.
func NewRepository(name model.TypeName, opts ...repository.Option) (*repository.Repository, error) {
	if globalConn == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return NewRepositoryWith(globalConn, DefaultMapper(), name, opts...)
}

// NewRepositoryWith returns a repository over conn with a builder for its
// dialect.
func NewRepositoryWith(conn *Connection, m mapper.Mapper, name model.TypeName, opts ...repository.Option) (*repository.Repository, error) {
	builder, err := NewBuilder(conn, m)
	if err != nil {
		return nil, err
	}
	return repository.New(name, conn, m, builder, opts...), nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	if globalFactory != nil {
		return globalFactory.Close()
	}
	return nil
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if globalFactory != nil {
		return globalFactory.GetHealthStatus(ctx)
	}
	return &HealthStatus{
		Healthy:   false,
		Connected: false,
		LastError: "Database not initialized",
	}
}
