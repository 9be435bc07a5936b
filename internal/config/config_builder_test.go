package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder verifies that building with no configs returns a
// zero-value StructuredConfig.
func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_EarlierSourceWins verifies that a field set by an earlier source
// is not overwritten by a later one, while unset fields are filled.
func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{App: App{LogLevel: "debug"}},
		&StructuredConfig{App: App{LogLevel: "info", SchemaPath: "schema.yaml"}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "schema.yaml", cfg.App.SchemaPath)
}

// ── withEnv / withFlags ───────────────────────────────────────────────────────

func TestWithEnv_AppendsOneConfig(t *testing.T) {
	clearEnvVars(t)
	b := newConfigBuilder().withEnv()
	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

func TestWithEnv_SetsErrorOnInvalidValue(t *testing.T) {
	setEnvVars(t, map[string]string{"WORKERS_PAGE_LIMIT": "lots"})
	b := newConfigBuilder().withEnv()
	assert.Error(t, b.err)
	assert.Empty(t, b.configs)
}

func TestWithFlags_NilIsSkipped(t *testing.T) {
	b := newConfigBuilder().withFlags(nil)
	assert.Empty(t, b.configs)
}

func TestWithFlags_AppendsParsedValues(t *testing.T) {
	flags := newTestFlagSet(t, "--schema", "from-flags.yaml")
	b := newConfigBuilder().withFlags(flags)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "from-flags.yaml", b.configs[0].App.SchemaPath)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

func TestWithJSON_NoOp_WhenNoPathSet(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})

	b.withJSON()
	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

func TestWithJSON_AppendsConfig_WhenValidFile(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"app": map[string]any{"schema_path": "from-json.yaml"},
	})
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})

	b.withJSON()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	assert.Equal(t, "from-json.yaml", b.configs[1].App.SchemaPath)
}

func TestWithJSON_SetsError_WhenFileNotFound(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "/nonexistent/config.json"})

	b.withJSON()
	assert.Error(t, b.err)
	assert.Len(t, b.configs, 1)
}

func TestWithJSON_UsesFirstPath(t *testing.T) {
	first := writeTempJSONConfig(t, map[string]any{"app": map[string]any{"log_level": "debug"}})
	second := writeTempJSONConfig(t, map[string]any{"app": map[string]any{"log_level": "error"}})
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{JSONFilePath: first},
		&StructuredConfig{JSONFilePath: second},
	)

	b.withJSON()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 3)
	assert.Equal(t, "debug", b.configs[2].App.LogLevel)
}

// ── withDefaults ──────────────────────────────────────────────────────────────

func TestWithDefaults_FillsOnlyUnsetFields(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{Workers: Workers{SyncConcurrency: 16}})

	cfg, err := b.withDefaults().build()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Workers.SyncConcurrency)
	assert.Equal(t, DefaultFetchConcurrency, cfg.Workers.FetchConcurrency)
	assert.Equal(t, DefaultSyncInterval, cfg.Workers.SyncInterval)
	assert.Equal(t, DefaultRequestTimeout, cfg.Adapter.RequestTimeout)
	assert.Equal(t, DefaultDSN, cfg.Storage.DB.DSN)
	assert.Equal(t, DefaultLogLevel, cfg.App.LogLevel)
}

// ── GetClientConfig ───────────────────────────────────────────────────────────

func TestGetClientConfig_EnvFlagsJSONAndDefaults(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"app":     map[string]any{"schema_path": "json.yaml", "log_level": "error"},
		"workers": map[string]any{"page_limit": 3},
	})
	setEnvVars(t, map[string]string{
		"ADAPTER_ADDRESS": "https://env.example.com",
		"CONFIG":          path,
	})
	flags := newTestFlagSet(t, "--log-level", "warn", "--token", "flag-token")

	cfg, err := GetClientConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Adapter.HTTPAddress)
	assert.Equal(t, "flag-token", cfg.Adapter.Token)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, "json.yaml", cfg.App.SchemaPath)
	assert.Equal(t, 3, cfg.Workers.PageLimit)
	assert.Equal(t, DefaultSyncConcurrency, cfg.Workers.SyncConcurrency)
	assert.Equal(t, DefaultRequestTimeout, cfg.Adapter.RequestTimeout)
}

func TestGetClientConfig_MissingSchema(t *testing.T) {
	setEnvVars(t, map[string]string{"ADAPTER_ADDRESS": "https://env.example.com"})

	_, err := GetClientConfig(nil)
	assert.ErrorIs(t, err, ErrInvalidAppConfigs)
}

func TestClientConfig_Validate(t *testing.T) {
	valid := func() *ClientConfig {
		return &ClientConfig{
			App:     ClientApp{SchemaPath: "schema.yaml"},
			Adapter: ClientAdapter{HTTPAddress: "https://api.example.com", RequestTimeout: time.Second},
			Storage: ClientStorage{DB: ClientDB{DSN: "file:records.db"}},
			Workers: ClientWorkers{SyncInterval: time.Second, SyncConcurrency: 1, FetchConcurrency: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*ClientConfig) {}},
		{name: "no schema", mutate: func(c *ClientConfig) { c.App.SchemaPath = " " }, wantErr: ErrInvalidAppConfigs},
		{name: "no dsn", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = "" }, wantErr: ErrInvalidStorageConfigs},
		{name: "memory dsn", mutate: func(c *ClientConfig) { c.Storage.DB.DSN = ":memory:" }, wantErr: ErrInvalidStorageConfigs},
		{name: "no address", mutate: func(c *ClientConfig) { c.Adapter.HTTPAddress = "" }, wantErr: ErrInvalidAdapterConfigs},
		{name: "no timeout", mutate: func(c *ClientConfig) { c.Adapter.RequestTimeout = 0 }, wantErr: ErrInvalidAdapterConfigs},
		{name: "no interval", mutate: func(c *ClientConfig) { c.Workers.SyncInterval = 0 }, wantErr: ErrInvalidWorkerConfigs},
		{name: "zero concurrency", mutate: func(c *ClientConfig) { c.Workers.SyncConcurrency = 0 }, wantErr: ErrInvalidWorkerConfigs},
		{name: "negative page limit", mutate: func(c *ClientConfig) { c.Workers.PageLimit = -1 }, wantErr: ErrInvalidWorkerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
