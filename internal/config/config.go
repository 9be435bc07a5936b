// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-record-sync client. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// an optional JSON file and built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the schema file and
	// logging.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the local record store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the remote API endpoint settings.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds scheduler and fetch pipeline limits.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged below the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// SchemaPath is the YAML file declaring the synchronised record types.
	// Env: APP_SCHEMA_PATH
	SchemaPath string `env:"SCHEMA_PATH"`

	// LogLevel is the minimum zerolog level (e.g. "debug", "info").
	// Env: APP_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL"`

	// LogFile is the file log entries are appended to. Empty means stdout.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Storage groups the configuration for the storage backends used by the
// client.
type Storage struct {
	// DB holds the local database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite file path or URI (e.g. "file:records.db").
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Adapter holds the remote API endpoint settings.
type Adapter struct {
	// HTTPAddress is the base URL of the remote API
	// (e.g. "https://api.example.com/v1").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout is the maximum duration of a single outbound request
	// (e.g. "30s", "1m").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// Token is the bearer token attached to every request.
	// Env: ADAPTER_TOKEN
	Token string `env:"TOKEN"`
}

// Workers holds scheduler and fetch pipeline limits.
type Workers struct {
	// SyncInterval defines how often pending records are rescanned.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// SyncConcurrency bounds the number of sync operations in flight.
	// Env: WORKERS_SYNC_CONCURRENCY
	SyncConcurrency int `env:"SYNC_CONCURRENCY"`

	// FetchConcurrency bounds the number of record types fetched at once.
	// Env: WORKERS_FETCH_CONCURRENCY
	FetchConcurrency int `env:"FETCH_CONCURRENCY"`

	// PageLimit caps the number of pages fetched per type. Zero means no
	// limit.
	// Env: WORKERS_PAGE_LIMIT
	PageLimit int `env:"PAGE_LIMIT"`
}

// Built-in defaults merged below every other source.
const (
	DefaultDSN              = "file:records.db"
	DefaultLogLevel         = "info"
	DefaultRequestTimeout   = 30 * time.Second
	DefaultSyncInterval     = 30 * time.Second
	DefaultSyncConcurrency  = 5
	DefaultFetchConcurrency = 1
)

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App:     App{LogLevel: DefaultLogLevel},
		Storage: Storage{DB: DB{DSN: DefaultDSN}},
		Adapter: Adapter{RequestTimeout: DefaultRequestTimeout},
		Workers: Workers{
			SyncInterval:     DefaultSyncInterval,
			SyncConcurrency:  DefaultSyncConcurrency,
			FetchConcurrency: DefaultFetchConcurrency,
		},
	}
}

// GetStructuredConfig loads and merges the client configuration from all
// available sources in the following priority order (earlier sources win for
// non-zero fields):
//  1. Environment variables
//  2. Command-line flags (nil flags are skipped)
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load.
func GetStructuredConfig(flags *Flags) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(flags).
		withJSON().
		withDefaults().
		build()
}
