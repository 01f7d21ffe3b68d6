// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigbench.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env and environment variable overrides, YAML export, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ScoringConfig: Normalization constant and clock resolution
//   - WorkloadsConfig: Iterations, work sizes and workload selection
//   - TopologyConfig: Overrides and fallbacks for detected host facts
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGBENCH_*), including those set by ./.env
//   - ~/.rigbench/config.toml
//   - ~/.rigbench/config.json
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts := cfg.WorkloadOptions(topology)
package config
