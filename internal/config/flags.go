package config

import (
	"github.com/spf13/pflag"
)

// Flags holds the values of the configuration flags registered on a
// command's flag set.
type Flags struct {
	cfg StructuredConfig
}

// RegisterFlags binds all configuration flags to fs and returns the holder
// read by [GetClientConfig] once fs has been parsed.
//
// Flags:
//
//	-s/--server remote API base URL
//	--token bearer token
//	--request-timeout request timeout (e.g., "30s", "1m")
//	-d/--dsn local database DSN
//	--schema schema YAML file path
//	-c/--config json file path with configs
//	--log-level minimum log level
//	--log-file log file path
//	--sync-interval pending rescan interval
//	--sync-concurrency concurrently running sync operations
//	--fetch-concurrency concurrently fetched record types
//	--page-limit maximum pages fetched per type
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}

	fs.StringVarP(&f.cfg.Adapter.HTTPAddress, "server", "s", "", "Remote API base URL")
	fs.StringVar(&f.cfg.Adapter.Token, "token", "", "Bearer token")
	fs.DurationVar(&f.cfg.Adapter.RequestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.StringVarP(&f.cfg.Storage.DB.DSN, "dsn", "d", "", "Local database DSN")
	fs.StringVar(&f.cfg.App.SchemaPath, "schema", "", "Schema YAML file path")
	fs.StringVarP(&f.cfg.JSONFilePath, "config", "c", "", "JSON config file path")
	fs.StringVar(&f.cfg.App.LogLevel, "log-level", "", "Minimum log level")
	fs.StringVar(&f.cfg.App.LogFile, "log-file", "", "Log file path")
	fs.DurationVar(&f.cfg.Workers.SyncInterval, "sync-interval", 0, "Pending records rescan interval")
	fs.IntVar(&f.cfg.Workers.SyncConcurrency, "sync-concurrency", 0, "Concurrently running sync operations")
	fs.IntVar(&f.cfg.Workers.FetchConcurrency, "fetch-concurrency", 0, "Concurrently fetched record types")
	fs.IntVar(&f.cfg.Workers.PageLimit, "page-limit", 0, "Maximum pages fetched per type (0 = no limit)")

	return f
}

// Config returns a copy of the parsed flag values.
func (f *Flags) Config() *StructuredConfig {
	cfg := f.cfg
	return &cfg
}
