// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared setup used across commands: configuration, logging,
// result storage and the history index.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jeranaias/rigbench/internal/benchmark"
	"github.com/jeranaias/rigbench/internal/config"
	"github.com/jeranaias/rigbench/internal/history"
	"github.com/jeranaias/rigbench/internal/logutil"
)

// loadConfig loads the configuration named by --config, or the default
// files. A default file that fails to parse is reported and replaced by
// defaults; an explicit --config path must load.
func loadConfig(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		cfg, err := config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, &ConfigError{Path: args.ConfigPath, Err: err}
		}
		config.SetGlobal(cfg)
		return cfg, nil
	}

	cfg, err := config.Load()
	if cfg == nil {
		return nil, &ConfigError{Err: err}
	}
	if err != nil {
		logutil.GetLogger().Warn("config file ignored, using defaults", zap.Error(err))
		if !args.Quiet && !args.JSON {
			fmt.Fprintf(stderr, "%s %v (using defaults)\n", WarningStyle.Render("[WARN]"), err)
		}
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// initLogging installs the global logger from cfg and the verbosity flags.
func initLogging(cfg *config.Config, args Args) (*zap.Logger, error) {
	level := cfg.Logging.Level
	switch {
	case args.Verbose:
		level = "debug"
	case args.Quiet:
		level = "error"
	}
	logger, err := logutil.InitLogger(logutil.Options{
		Level:       level,
		File:        cfg.Logging.File,
		Development: args.Verbose,
	})
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("logging: %w", err)}
	}
	return logger, nil
}

// setup loads configuration and logging for a command.
func setup(args Args) (*config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(args)
	if err != nil {
		return nil, nil, err
	}
	logger, err := initLogging(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// reportFormat resolves the output format: flag, then configuration.
func reportFormat(cfg *config.Config, args Args) string {
	if args.Format != "" {
		return args.Format
	}
	if f := strings.ToLower(cfg.Output.Format); f != "" {
		return f
	}
	return "text"
}

// openStorage opens the JSON result directory.
func openStorage(cfg *config.Config) (*benchmark.Storage, error) {
	if cfg.Output.Dir != "" {
		return benchmark.NewStorageWithDir(cfg.Output.Dir)
	}
	return benchmark.NewStorage()
}

// openHistory opens the run index.
func openHistory(ctx context.Context, cfg *config.Config) (*history.History, error) {
	path, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, err
	}
	return history.Open(ctx, path)
}

// closeHistory closes h, folding a close failure into err.
func closeHistory(h *history.History, err *error) {
	*err = multierr.Append(*err, h.Close())
}

// resolveRun finds a stored run by id prefix, consulting the history index
// for the result path before scanning the result directory.
func resolveRun(ctx context.Context, cfg *config.Config, store *benchmark.Storage, prefix string) (*benchmark.Result, error) {
	if h, err := openHistory(ctx, cfg); err == nil {
		entry, getErr := h.Get(ctx, prefix)
		_ = h.Close()
		if getErr == nil {
			if entry.ResultPath != "" {
				if r, loadErr := store.Load(entry.ResultPath); loadErr == nil {
					return r, nil
				}
			}
			prefix = entry.RunID
		} else if errors.Is(getErr, history.ErrAmbiguousID) {
			return nil, mapHistoryErr(getErr, prefix)
		}
	}

	r, err := store.Find(prefix)
	if err != nil {
		return nil, &NotFoundError{Resource: "run", ID: prefix}
	}
	return r, nil
}
