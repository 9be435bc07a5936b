// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

// validate checks that the client configuration satisfies all runtime
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or an error wrapping one of the
// ErrInvalid* sentinels otherwise.
func (cfg *ClientConfig) validate() error {
	if strings.TrimSpace(cfg.App.SchemaPath) == "" {
		return fmt.Errorf("%w: schema path is required", ErrInvalidAppConfigs)
	}

	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return fmt.Errorf("%w: a persistent dsn is required", ErrInvalidStorageConfigs)
	}

	if cfg.Adapter.HTTPAddress == "" || cfg.Adapter.RequestTimeout <= 0 {
		return fmt.Errorf("%w: address and request timeout are required", ErrInvalidAdapterConfigs)
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.SyncConcurrency <= 0 ||
		cfg.Workers.FetchConcurrency <= 0 || cfg.Workers.PageLimit < 0 {
		return fmt.Errorf("%w: intervals and concurrency limits must be positive", ErrInvalidWorkerConfigs)
	}

	return nil
}
