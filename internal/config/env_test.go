// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"CONFIG": "/path/to/config.json",

		"APP_SCHEMA_PATH": "/etc/sync/schema.yaml",
		"APP_LOG_LEVEL":   "debug",
		"APP_LOG_FILE":    "/var/log/sync.log",

		"ADAPTER_ADDRESS":         "https://api.example.com/v1",
		"ADAPTER_REQUEST_TIMEOUT": "15s",
		"ADAPTER_TOKEN":           "secret",

		"STORAGE_DB_DSN": "file:/var/lib/sync/records.db",

		"WORKERS_SYNC_INTERVAL":     "1m",
		"WORKERS_SYNC_CONCURRENCY":  "8",
		"WORKERS_FETCH_CONCURRENCY": "3",
		"WORKERS_PAGE_LIMIT":        "10",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)

	assert.Equal(t, "/etc/sync/schema.yaml", cfg.App.SchemaPath)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "/var/log/sync.log", cfg.App.LogFile)

	assert.Equal(t, "https://api.example.com/v1", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 15*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, "secret", cfg.Adapter.Token)

	assert.Equal(t, "file:/var/lib/sync/records.db", cfg.Storage.DB.DSN)

	assert.Equal(t, time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 8, cfg.Workers.SyncConcurrency)
	assert.Equal(t, 3, cfg.Workers.FetchConcurrency)
	assert.Equal(t, 10, cfg.Workers.PageLimit)
}

func TestParseEnv_PartialFields(t *testing.T) {
	// Arrange
	envVars := map[string]string{
		"ADAPTER_ADDRESS": "localhost:8080",
		"APP_LOG_LEVEL":   "warn",
	}
	setEnvVars(t, envVars)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Adapter.HTTPAddress)
	assert.Zero(t, cfg.Adapter.RequestTimeout)
	assert.Empty(t, cfg.Adapter.Token)

	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Empty(t, cfg.App.SchemaPath)

	assert.Empty(t, cfg.Storage.DB.DSN)
	assert.Equal(t, Workers{}, cfg.Workers)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseEnv_EmptyEnv(t *testing.T) {
	// Arrange
	clearEnvVars(t)

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

func TestParseEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "duration", key: "ADAPTER_REQUEST_TIMEOUT", val: "soon"},
		{name: "integer", key: "WORKERS_SYNC_CONCURRENCY", val: "many"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvVars(t, map[string]string{tt.key: tt.val})

			err := parseEnv(&StructuredConfig{})
			assert.Error(t, err)
		})
	}
}

func TestParseEnv_RequestTimeoutFormats(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{name: "seconds", envValue: "30s", expected: 30 * time.Second},
		{name: "minutes", envValue: "2m", expected: 2 * time.Minute},
		{name: "milliseconds", envValue: "500ms", expected: 500 * time.Millisecond},
		{name: "combined", envValue: "1m30s", expected: 90 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			setEnvVars(t, map[string]string{"ADAPTER_REQUEST_TIMEOUT": tt.envValue})

			// Act
			cfg := &StructuredConfig{}
			err := parseEnv(cfg)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cfg.Adapter.RequestTimeout)
		})
	}
}

// Helpers

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	clearEnvVars(t)
	for k, v := range vars {
		require.NoError(t, os.Setenv(k, v))
		t.Cleanup(func() { _ = os.Unsetenv(k) })
	}
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONFIG",

		"APP_SCHEMA_PATH",
		"APP_LOG_LEVEL",
		"APP_LOG_FILE",

		"ADAPTER_ADDRESS",
		"ADAPTER_REQUEST_TIMEOUT",
		"ADAPTER_TOKEN",

		"STORAGE_DB_DSN",

		"WORKERS_SYNC_INTERVAL",
		"WORKERS_SYNC_CONCURRENCY",
		"WORKERS_FETCH_CONCURRENCY",
		"WORKERS_PAGE_LIMIT",
	}
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}
