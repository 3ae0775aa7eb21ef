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
	"time"

	"github.com/uptrace/bun"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection and reporting its health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	SetLogger(logger Logger)
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// ConnectionConfig describes how to connect to a database. Every field can
// be overridden by a DB_ prefixed environment variable, e.g. DB_HOST.
type ConnectionConfig struct {
	Type           string        `json:"type" yaml:"type" env:"TYPE"` // postgres、mysql、sqlite
	Host           string        `json:"host" yaml:"host" env:"HOST"`
	Port           int           `json:"port" yaml:"port" env:"PORT"`
	Username       string        `json:"username" yaml:"username" env:"USERNAME"`
	Password       string        `json:"password" yaml:"password" env:"PASSWORD"`
	DBName         string        `json:"dbname" yaml:"dbname" env:"NAME"`
	SSLMode        string        `json:"sslmode" yaml:"sslmode" env:"SSLMODE"`
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	ReadTimeout    time.Duration `json:"read_timeout" yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `json:"write_timeout" yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	EnableQueryLog bool          `json:"enable_query_log" yaml:"enable_query_log" env:"ENABLE_QUERY_LOG"`
	SlowQueryTime  time.Duration `json:"slow_query_time" yaml:"slow_query_time" env:"SLOW_QUERY_TIME"`
	// CacheSize bounds the retrieve result cache; zero disables caching.
	CacheSize int `json:"cache_size" yaml:"cache_size" env:"CACHE_SIZE"`
}

// Config aggregates the connection settings and the mapping tables file.
type Config struct {
	ConnectionConfig ConnectionConfig `json:"connection_config" yaml:"connection_config"`
	// TablesFile is a YAML namespace to table map, see mapper.LoadTables.
	TablesFile string `json:"tables_file" yaml:"tables_file" env:"TABLES_FILE"`
}

// DefaultConnectionConfig returns a connection config with sensible defaults.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		ConnectTimeout: time.Second * 10,
		ReadTimeout:    time.Second * 30,
		WriteTimeout:   time.Second * 30,
		EnableQueryLog: false,
		SlowQueryTime:  time.Second * 2,
		CacheSize:      256,
	}
}
